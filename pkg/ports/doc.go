/*
Package ports defines the driven ports (interfaces) around the simulator.

These interfaces decouple the session and transport layers from concrete
implementations, so simulations can be stored in memory or in Redis and machine
descriptions can come from a Loam directory, a YAML file or Go code.

# Key Interfaces

  - MachineLoader: Resolves machine descriptions by ID (e.g., from Loam or Memory).
  - SessionStore: Persists live simulation sessions between requests.
  - DistributedLocker: Provides distributed locking for concurrent session access.
  - Machine: The stepping surface consumed by runners.
*/
package ports
