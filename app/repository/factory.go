package repository

import (
	"sync"

	"gorm.io/gorm"
)

var (
	globalRepos *Repositories
	factoryOnce sync.Once
)

// InitializeFactory builds the shared repositories on db. Later calls are
// ignored.
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalRepos = NewRepositories(db)
	})
}

// GetGlobalRepositories returns the repositories built by InitializeFactory.
func GetGlobalRepositories() *Repositories {
	if globalRepos == nil {
		panic("repository: InitializeFactory has not been called")
	}
	return globalRepos
}
