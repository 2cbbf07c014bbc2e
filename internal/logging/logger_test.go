package logging

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatterSortsFields(t *testing.T) {
	entry := logrus.NewEntry(logrus.New()).WithFields(logrus.Fields{
		"status": 404,
		"method": "GET",
	})
	entry.Time = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	entry.Level = logrus.WarnLevel
	entry.Message = "request failed"

	out, err := (&Formatter{SystemName: "facultyflow"}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t,
		"2025-01-02 03:04:05 WARNING [facultyflow] request failed method=GET status=404\n",
		string(out),
	)
}
