package parser

import "fmt"

// MemRegion is a named contiguous block of delay RAM (spec.md §3, §4.5).
type MemRegion struct {
	Name   string
	Size   int
	Start  int
	Middle int
	End    int // logical end = Start + Size - 1
	Line   int
}

// MemAllocator allocates MEM regions in source order starting at address 0,
// replicating the SpinASM-compatibility allocator bug when enabled (spec.md
// §4.5): each region wastes one extra word, and NAME# resolves to End+1
// (Start+Size, one past the logical end) instead of End while the bug is
// on.
type MemAllocator struct {
	Capacity int
	BugMode  bool

	next    int
	regions []*MemRegion
	byName  map[string]*MemRegion
}

func NewMemAllocator(capacity int, bugMode bool) *MemAllocator {
	return &MemAllocator{Capacity: capacity, BugMode: bugMode, byName: make(map[string]*MemRegion)}
}

// Allocate reserves size words for name, returning the region or a fatal
// diagnostic if the cumulative allocation exceeds Capacity.
func (a *MemAllocator) Allocate(name string, size int, line int, diags *Diagnostics) *MemRegion {
	if size < 1 {
		diags.Fatal(Position{Line: line}, DiagInvalidMemSize, "MEM %q: size %d out of range (must be >= 1)", name, size)
		return nil
	}

	start := a.next
	end := start + size - 1

	if end >= a.Capacity {
		diags.Fatal(Position{Line: line}, DiagMemCapacityExceeded, "MEM %q: allocation exceeds delay capacity %d", name, a.Capacity)
		return nil
	}

	var middle int
	if size%2 == 0 {
		middle = start + size/2
	} else {
		middle = start + (size-1)/2 - 1
	}

	if a.BugMode {
		a.next = end + 2
	} else {
		a.next = end + 1
	}

	region := &MemRegion{Name: name, Size: size, Start: start, Middle: middle, End: end, Line: line}
	a.regions = append(a.regions, region)
	a.byName[name] = region
	return region
}

// AddressEnd returns the address NAME# resolves to: End+1 with the bug on,
// or End (Start+Size-1) with the bug off — spec.md §3: "address expressions NAME# resolve to end + 1 when the
// SpinASM-compatibility bug flag is enabled".
func (r *MemRegion) AddressEnd(bugMode bool) int {
	if bugMode {
		return r.End + 1
	}
	return r.End
}

// Lookup returns the region named name, if any.
func (a *MemAllocator) Lookup(name string) (*MemRegion, bool) {
	r, ok := a.byName[name]
	return r, ok
}

// All returns every allocated region in allocation order.
func (a *MemAllocator) All() []*MemRegion {
	return a.regions
}

// Has reports whether name collides with an existing MEM region.
func (a *MemAllocator) Has(name string) bool {
	_, ok := a.byName[name]
	return ok
}

func (r *MemRegion) String() string {
	return fmt.Sprintf("%s[start=%d mid=%d end=%d]", r.Name, r.Start, r.Middle, r.End)
}
