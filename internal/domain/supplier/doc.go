// Package supplier contains the Supplier bounded context.
// This context manages the connection to the dropshipping supplier: credentials,
// the catalog the supplier exposes, and the events the supplier pushes at us.
//
// Key concepts:
//   - Gateway: Port interface for the supplier's product, stock and review APIs
//   - Credential: Entity holding the API token pair for a supplier connection
//   - ExternalProduct/ExternalVariant: Normalized supplier catalog records
//   - WebhookEvent: Entity tracking a pushed event through its processing lifecycle
//   - SuspectRule: Predicates flagging locally stored variant ids that need verification
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package supplier
