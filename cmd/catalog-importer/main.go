package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/louisbranch/gangledger/internal/cmd/importer"
	"github.com/louisbranch/gangledger/internal/platform/config"
)

func main() {
	cfg, err := importer.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	log.SetPrefix("[IMPORTER] ")

	if err := importer.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("Error: %v", err)
	}
}
