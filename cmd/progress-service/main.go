package main

import (
	"flag"
	"os"
	"strconv"

	"github.com/flowtide/progress/progressservice"
)

func main() {
	// Flag overrides for the common local knobs; everything else comes from
	// PROGRESS_* environment variables.
	port := flag.Int("port", 0, "Override PROGRESS_HTTP_PORT")
	dbDriver := flag.String("db-driver", "", "Override PROGRESS_DB_DRIVER (sqlite, postgres)")
	flag.Parse()

	if *port != 0 {
		_ = os.Setenv("PROGRESS_HTTP_PORT", strconv.Itoa(*port))
	}
	if *dbDriver != "" {
		_ = os.Setenv("PROGRESS_DB_DRIVER", *dbDriver)
	}

	if err := progressservice.Run(); err != nil {
		os.Exit(1)
	}
}
