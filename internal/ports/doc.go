// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. The orchestrator
// depends only on these interfaces, never on concrete tools.
package ports
