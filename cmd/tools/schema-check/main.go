// cmd/tools/schema-check/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"careplus/internal/common/validation"
	"careplus/pkg/registry"
)

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)

	listPath := listCmd.String("path", "", "registry file (default: embedded registry)")
	validatePath := validateCmd.String("path", "pkg/registry/schemas.json", "registry file to validate")
	checkPath := checkCmd.String("path", "", "registry file (default: embedded registry)")
	checkID := checkCmd.String("id", "", "schema id (e.g. reading.create)")
	checkFile := checkCmd.String("file", "", "JSON payload file to check")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		reg := mustLoad(*listPath)
		fmt.Printf("Registry version %s (updated %s)\n", reg.Version, reg.LastUpdated)
		for _, s := range reg.Schemas {
			fmt.Printf("  %-22s %s\n", s.ID, s.Description)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg := mustLoad(*validatePath)
		if problems := validation.CheckRegistry(reg); len(problems) > 0 {
			fmt.Println("Registry has problems:")
			for _, p := range problems {
				fmt.Printf("  - %s\n", p)
			}
			os.Exit(1)
		}
		fmt.Printf("Registry OK: %d schemas\n", len(reg.Schemas))

	case "check":
		checkCmd.Parse(os.Args[2:])
		if *checkID == "" || *checkFile == "" {
			fmt.Println("Error: id and file are required for check.")
			checkCmd.Usage()
			os.Exit(1)
		}
		body, err := os.ReadFile(*checkFile)
		if err != nil {
			fmt.Printf("Error reading payload: %v\n", err)
			os.Exit(1)
		}
		res, err := validation.NewValidator(mustLoad(*checkPath)).ValidateJSON(*checkID, body)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if !res.Valid {
			fmt.Printf("Payload rejected: %s\n", res.Summary())
			os.Exit(1)
		}
		fmt.Println("Payload accepted")

	default:
		help()
		os.Exit(1)
	}
}

func mustLoad(path string) *registry.SchemaRegistry {
	var (
		reg *registry.SchemaRegistry
		err error
	)
	if path == "" {
		reg, err = registry.Default()
	} else {
		reg, err = registry.LoadRegistry(path)
	}
	if err != nil {
		fmt.Printf("Error loading registry: %v\n", err)
		os.Exit(1)
	}
	return reg
}

func help() {
	fmt.Println("Usage: schema-check <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  list      List registered payload schemas")
	fmt.Println("  validate  Check a registry file for duplicate, missing or broken schemas")
	fmt.Println("  check     Validate a JSON payload file against one schema")
}
