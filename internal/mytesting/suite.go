package mytesting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/habiliai/botruntime/internal/db"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// Suite gives every test a fresh context and a migrated in-memory database.
type Suite struct {
	suite.Suite
	context.Context

	Cancel context.CancelFunc
	DB     *gorm.DB
}

func (s *Suite) SetupTest() {
	projectRoot, err := s.findProjectRoot()
	s.Require().NoError(err, "Failed to find project root")

	envFile := os.Getenv("ENV_TEST_FILE")
	if envFile == "" {
		envFile = filepath.Join(projectRoot, ".env.test")
	}
	if _, err := os.Stat(envFile); err == nil {
		s.Require().NoError(godotenv.Load(envFile))
	}

	s.Context, s.Cancel = context.WithCancel(context.TODO())

	s.DB, err = db.OpenDB(":memory:")
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(s.Context, s.DB))
}

func (s *Suite) TearDownTest() {
	s.Cancel()
	s.Require().NoError(db.CloseDB(s.DB))
}

// findProjectRoot searches for go.mod file starting from the current file location
func (s *Suite) findProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to get caller information")
	}

	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("go.mod not found in any parent directory")
}
