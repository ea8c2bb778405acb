package cli

import (
	"time"

	"github.com/okian/marks/internal/domain/caps"
)

// Config holds the options of one offline conversion.
type Config struct {
	In                string        // Input sheet, xlsx or csv
	Out               string        // Output file; empty derives a timestamped name
	Stage             string        // first, final, grades or all
	PassingPercentage float64       // ESE passing percentage in [30, 70]
	Caps              caps.Explicit // Explicit raw caps; missing ones come from headers
	Workers           int           // Mapping workers
	ParallelThreshold int           // Dataset size from which mapping uses workers
	Timeout           time.Duration // Whole run timeout
	LogLevel          string        // debug, info, warn, error
}
