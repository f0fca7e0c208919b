package sim

import (
	"log"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/xid"
)

var (
	idGeneratorMutex        sync.Mutex
	idGeneratorInstantiated bool
	idGenerator             IDGenerator
)

// IDGenerator generates IDs for events and flits.
type IDGenerator interface {
	Generate() string
}

// UseSequentialIDGenerator makes IDs deterministic. It panics if the
// parallel generator is already in use.
func UseSequentialIDGenerator() {
	if err := ChooseIDGenerator(false); err != nil {
		log.Panic(err)
	}
}

// UseParallelIDGenerator makes IDs globally unique but not deterministic.
// It panics if the sequential generator is already in use.
func UseParallelIDGenerator() {
	if err := ChooseIDGenerator(true); err != nil {
		log.Panic(err)
	}
}

// ChooseIDGenerator selects the parallel or the sequential generator.
// Choosing the kind in use does nothing. Once a generator is in use, the
// other kind cannot be chosen.
func ChooseIDGenerator(parallel bool) error {
	idGeneratorMutex.Lock()
	defer idGeneratorMutex.Unlock()

	var g IDGenerator = &sequentialIDGenerator{}
	if parallel {
		g = parallelIDGenerator{}
	}

	if idGeneratorInstantiated {
		if reflect.TypeOf(idGenerator) == reflect.TypeOf(g) {
			return nil
		}

		return errors.New("cannot change id generator type after using it")
	}

	idGenerator = g
	idGeneratorInstantiated = true

	return nil
}

// GetIDGenerator returns the ID generator in use. The sequential generator
// is used if none is selected.
func GetIDGenerator() IDGenerator {
	idGeneratorMutex.Lock()
	defer idGeneratorMutex.Unlock()

	if !idGeneratorInstantiated {
		idGenerator = &sequentialIDGenerator{}
		idGeneratorInstantiated = true
	}

	return idGenerator
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(atomic.AddUint64(&g.nextID, 1), 10)
}

type parallelIDGenerator struct{}

func (g parallelIDGenerator) Generate() string {
	return xid.New().String()
}
