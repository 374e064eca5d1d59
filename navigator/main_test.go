package navigator

import (
	"io"
	"os"
	"testing"

	"github.com/brettbedarf/treenav/internal/util"
)

func TestMain(m *testing.M) {
	util.InitializeLoggerTo(io.Discard, util.ErrorLevel)
	os.Exit(m.Run())
}
