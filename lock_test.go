package parcheck

import (
	"testing"

	"github.com/m-mizutani/gt"
)

func TestLockTableSharedDoesNotConflict(t *testing.T) {
	lt := newLockTable()
	lt.acquire(0, []Lock{AcquireShared("s")})

	blocked := lt.blocked(1, []Lock{AcquireShared("s")})
	gt.Equal(t, 0, len(blocked))
}

func TestLockTableExclusiveConflicts(t *testing.T) {
	lt := newLockTable()
	lt.acquire(0, []Lock{AcquireExclusive("s")})

	gt.Equal(t, 1, len(lt.blocked(1, []Lock{AcquireShared("s")})))
	gt.Equal(t, 1, len(lt.blocked(1, []Lock{AcquireExclusive("s")})))

	// The holder itself is never blocked by its own lock.
	gt.Equal(t, 0, len(lt.blocked(0, []Lock{AcquireExclusive("s")})))
}

func TestLockTableSharedBlocksExclusive(t *testing.T) {
	lt := newLockTable()
	lt.acquire(0, []Lock{AcquireShared("s")})

	gt.Equal(t, 1, len(lt.blocked(1, []Lock{AcquireExclusive("s")})))
}

func TestLockTableUpgrade(t *testing.T) {
	lt := newLockTable()
	lt.acquire(0, []Lock{AcquireShared("s")})
	lt.acquire(0, []Lock{AcquireExclusive("s")})

	gt.Equal(t, 1, len(lt.blocked(1, []Lock{AcquireShared("s")})))
	gt.Equal(t, []string{"s"}, lt.held(0))
}

func TestLockTableRelease(t *testing.T) {
	lt := newLockTable()
	lt.acquire(0, []Lock{AcquireExclusive("s")})
	lt.release(0, []Lock{Release("s")})

	gt.Equal(t, 0, len(lt.blocked(1, []Lock{AcquireExclusive("s")})))
	gt.Equal(t, 0, len(lt.held(0)))
}

func TestLockTableReleaseAnnotationIgnoredOnBlockCheck(t *testing.T) {
	lt := newLockTable()
	lt.acquire(0, []Lock{AcquireExclusive("s")})

	// A pure Release annotation never blocks, even while another task holds
	// the scope.
	gt.Equal(t, 0, len(lt.blocked(1, []Lock{Release("s")})))
}

func TestLockTableHeldScopes(t *testing.T) {
	lt := newLockTable()
	lt.acquire(0, []Lock{AcquireShared("a"), AcquireExclusive("b")})

	held := lt.held(0)
	gt.Equal(t, 2, len(held))
	gt.Equal(t, 0, len(lt.held(1)))
}
