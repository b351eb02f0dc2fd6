// Package verify cross-checks the stored state diffs against the point-in-time tables.
package verify

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/encoder"
	"github.com/NethermindEth/statedb/storage"
	"github.com/NethermindEth/statedb/utils"
	"github.com/bits-and-blooms/bitset"
	"github.com/sourcegraph/conc/pool"
)

type Options struct {
	Workers int `mapstructure:"workers" validate:"gte=0"`
}

func DefaultOptions() Options {
	return Options{Workers: runtime.GOMAXPROCS(0)}
}

// Issue is an inconsistency found in the stored data of a block.
type Issue struct {
	Block core.BlockNumber
	Msg   string
}

func (i Issue) String() string {
	return fmt.Sprintf("block %d: %s", i.Block, i.Msg)
}

type Report struct {
	StateMarker         core.BlockNumber
	ClassMarker         core.BlockNumber
	CompiledClassMarker core.BlockNumber
	// Blocks that declare at least one Sierra class.
	DeclaringBlocks uint
	Issues          []Issue
}

func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

type scan struct {
	storage *storage.Storage

	mu       sync.Mutex
	issues   []Issue
	declared *bitset.BitSet
}

func (s *scan) report(block core.BlockNumber, format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues = append(s.issues, Issue{Block: block, Msg: fmt.Sprintf(format, args...)})
}

func (s *scan) markDeclaring(block core.BlockNumber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declared.Set(uint(block))
}

// Run scans every block below the State marker. Inconsistencies end up in the report,
// the returned error is reserved for failures that stop the scan.
func Run(ctx context.Context, s *storage.Storage, log utils.SimpleLogger, opts Options) (*Report, error) {
	start := time.Now()
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	report := new(Report)
	if err := s.View(func(txn *storage.ReadTxn) error {
		var err error
		if report.StateMarker, err = txn.StateMarker(); err != nil {
			return err
		}
		if report.ClassMarker, err = txn.ClassMarker(); err != nil {
			return err
		}
		report.CompiledClassMarker, err = txn.CompiledClassMarker()
		return err
	}); err != nil {
		return nil, err
	}

	sc := &scan{
		storage:  s,
		declared: bitset.New(uint(report.StateMarker)),
	}
	if report.ClassMarker > report.StateMarker {
		sc.report(report.ClassMarker, "class marker is ahead of state marker %d", report.StateMarker)
	}
	if report.CompiledClassMarker > report.StateMarker {
		sc.report(report.CompiledClassMarker, "compiled class marker is ahead of state marker %d", report.StateMarker)
	}

	log.Infow("Verifying storage", "blocks", report.StateMarker, "workers", workers)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(workers)
	for block := range report.StateMarker {
		if ctx.Err() != nil {
			break
		}
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return sc.storage.View(func(txn *storage.ReadTxn) error {
				return sc.checkBlock(txn, block)
			})
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.View(sc.checkCompiledClasses(report.CompiledClassMarker)); err != nil {
		return nil, err
	}

	report.DeclaringBlocks = sc.declared.Count()
	report.Issues = sc.issues
	slices.SortStableFunc(report.Issues, func(a, b Issue) int {
		return cmp.Compare(a.Block, b.Block)
	})

	log.Infow("Verification finished", "blocks", report.StateMarker, "issues", len(report.Issues),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return report, nil
}

func (s *scan) checkBlock(txn *storage.ReadTxn, block core.BlockNumber) error {
	diff, err := txn.StateDiff(block)
	if errors.Is(err, encoder.ErrMalformed) {
		s.report(block, "state diff does not decode: %v", err)
		return nil
	} else if err != nil {
		return err
	}
	if diff == nil {
		s.report(block, "state diff is missing")
		return nil
	}

	reader := txn.StateReader()
	state := core.RightAfterBlock(block)

	for addr, classHash := range diff.DeployedContracts.All() {
		got, found, err := reader.ClassHashAt(state, addr)
		if err != nil {
			return err
		}
		if !found || got != classHash {
			s.report(block, "contract %s is deployed with class %s, stored %s", &addr, &classHash, &got)
		}
	}

	for addr, diffs := range diff.StorageDiffs.All() {
		for key, value := range diffs.All() {
			got, err := reader.StorageAt(state, addr, key)
			if err != nil {
				return err
			}
			if got != value {
				s.report(block, "storage %s of contract %s is %s, stored %s", &key, &addr, &value, &got)
			}
		}
	}

	for addr, nonce := range diff.Nonces.All() {
		got, found, err := reader.NonceAt(state, addr)
		if err != nil {
			return err
		}
		if !found || got != nonce {
			s.report(block, "nonce of contract %s is %s, stored %s", &addr, &nonce, &got)
		}
	}

	for classHash, casmHash := range diff.DeclaredClasses.All() {
		declaredAt, found, err := reader.ClassDefinitionBlockNumber(classHash)
		if err != nil {
			return err
		}
		if !found || declaredAt != block {
			s.report(block, "class %s is indexed at block %d (found %t)", &classHash, declaredAt, found)
		}

		got, found, err := reader.CompiledClassHashAt(state, classHash)
		if err != nil {
			return err
		}
		if !found || got != casmHash {
			s.report(block, "class %s commits to compiled class %s, stored %s", &classHash, &casmHash, &got)
		}
	}
	if diff.DeclaredClasses.Len() > 0 {
		s.markDeclaring(block)
	}

	for _, classHash := range diff.DeprecatedDeclaredClasses {
		declaredAt, found, err := reader.DeprecatedClassDefinitionBlockNumber(classHash)
		if err != nil {
			return err
		}
		if !found || declaredAt > block {
			s.report(block, "deprecated class %s is indexed at block %d (found %t)", &classHash, declaredAt, found)
		}
	}
	return nil
}

// checkCompiledClasses makes sure every declaring block below marker has all of its CASMs.
func (s *scan) checkCompiledClasses(marker core.BlockNumber) func(*storage.ReadTxn) error {
	return func(txn *storage.ReadTxn) error {
		for i, ok := s.declared.NextSet(0); ok && i < uint(marker); i, ok = s.declared.NextSet(i + 1) {
			block := core.BlockNumber(i)
			diff, err := txn.StateDiff(block)
			if err != nil {
				return err
			}
			for _, classHash := range diff.DeclaredClasses.Keys() {
				found, err := txn.HasCasm(classHash)
				if err != nil {
					return err
				}
				if !found {
					s.report(block, "casm of class %s is missing below compiled class marker %d", &classHash, marker)
				}
			}
		}
		return nil
	}
}
