package testutil

import (
	"context"
	"path/filepath"

	"github.com/stretchr/testify/suite"
)

// JobSuite is a base suite for tests that run jobs end to end. Each test
// gets a fresh context, a test logger and a scratch directory.
type JobSuite struct {
	suite.Suite
	ctx     context.Context
	cancel  context.CancelFunc
	tempDir string
}

// SetupTest runs before each test in the suite
func (s *JobSuite) SetupTest() {
	s.ctx, s.cancel = TestContext(s.T())
	s.tempDir = s.T().TempDir()
	TestLogger(s.T())
}

// TearDownTest runs after each test in the suite
func (s *JobSuite) TearDownTest() {
	s.cancel()
}

// Context returns the test context
func (s *JobSuite) Context() context.Context {
	return s.ctx
}

// Dir returns a path under the scratch directory.
func (s *JobSuite) Dir(elem ...string) string {
	return filepath.Join(append([]string{s.tempDir}, elem...)...)
}

// WriteFile writes a fixture under the scratch directory.
func (s *JobSuite) WriteFile(rel, content string) string {
	return WriteFile(s.T(), filepath.Dir(s.Dir(rel)), filepath.Base(rel), content)
}
