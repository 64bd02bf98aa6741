package claudestream

import (
	"github.com/verdantlabs/claudestream/internal/config"
)

// Transport abstracts the execution of the CLI subprocess. The default
// implementation spawns the real binary; tests and alternative execution
// environments can inject their own via WithTransport.
//
// A Transport is single-use: Start it once, consume Stream once, and
// Close it when done. Close must be safe to call multiple times and
// after process exit.
type Transport = config.Transport

// Event is a single item of transport output: either a decoded message
// or an error. Fatal marks errors that end the stream; all other errors
// are recoverable and followed by further events.
type Event = config.Event
