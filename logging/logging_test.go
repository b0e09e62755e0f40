package logging_test

import (
	"testing"

	"github.com/gewnthar/netincidents/logging"
	"github.com/m-mizutani/gt"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		log, err := logging.New("debug", format)
		gt.NoError(t, err).Required()
		gt.NotNil(t, log)
	}

	_, err := logging.New("loud", "json")
	gt.Error(t, err)

	_, err = logging.New("info", "xml")
	gt.Error(t, err)
}
