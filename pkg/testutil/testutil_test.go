package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestTestLoggerRestores(t *testing.T) {
	before := logger.Get()
	t.Run("inner", func(t *testing.T) {
		l := TestLogger(t)
		assert.Same(t, l, logger.Get())
	})
	assert.Same(t, before, logger.Get())
}

func TestAssertEventually(t *testing.T) {
	start := time.Now()
	AssertEventually(t, func() bool { return time.Since(start) > 20*time.Millisecond }, time.Second, "clock")
}

type jobSuite struct {
	JobSuite
}

func (s *jobSuite) TestWriteFile() {
	path := s.WriteFile("nodes/Table_0.csv", "KEY,LABEL\n")
	data, err := os.ReadFile(path)
	require.NoError(s.T(), err)
	s.Equal("KEY,LABEL\n", string(data))
	s.Equal(s.Dir("nodes", "Table_0.csv"), path)
	s.NoError(s.Context().Err())
}

func TestJobSuite(t *testing.T) {
	suite.Run(t, new(jobSuite))
}
