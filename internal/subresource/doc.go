// Package subresource builds and maintains the objects a CDBootstrap owns.
//
// Every CDBootstrap owns exactly one object of each Kind in its namespace:
//
//   - Workload: the agent Deployment, named after the CDBootstrap
//   - Config: a ConfigMap with AZP_URL and AZP_POOL
//   - Secret: an Opaque Secret with AZP_TOKEN and SPN_SECRET
//   - Policy: an egress NetworkPolicy named allow-egress-<name>
//
// The Orchestrator applies an object by reading the live copy and replacing it
// wholesale with a freshly built one, or by creating it when the read fails.
// Applying twice with the same spec leaves the object unchanged.
//
// Desired state is checked on the Workload replica count only.
package subresource
