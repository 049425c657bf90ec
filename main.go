// =============================================================================
// Pre-Alert Engine - Main Entry Point
// =============================================================================
//
// This is the main entry point for the prealert CLI. It delegates command
// execution to the cmd package.
//
// USAGE:
//   prealert generate   - Generate a sample shipment collection
//   prealert summarize  - Total the line items of one or more files
//   prealert filter     - Search the line items of a file
//   prealert compare    - Flag mismatching fields between two sources
//   prealert process    - Process every file in the input directory
//   prealert board      - Render the sample shipment board
//   prealert version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Line-item engine, loaders and report writers
//   - pkg/           : Shared file management utilities
//   - datasets/      : Per-source YAML dataset configurations
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/prealert-engine/cmd"
)

func main() {
	cmd.Execute()
}
