// Package storage provides the line-addressable partition owned by each
// ring node.
package storage

import (
	"log"

	"github.com/sarchlab/tmu/flit"
)

// A Partition stores the lines of one node. Lines that were never written
// read as zero and take no memory.
type Partition struct {
	numLines int
	lines    map[uint32]*flit.Line

	reads, writes uint64
}

// NewPartition creates a partition with the given number of lines.
func NewPartition(numLines int) *Partition {
	if numLines <= 0 {
		log.Panicf("partition must have lines, got %d", numLines)
	}

	return &Partition{
		numLines: numLines,
		lines:    make(map[uint32]*flit.Line),
	}
}

// NumLines returns the capacity of the partition in lines.
func (p *Partition) NumLines() int {
	return p.numLines
}

// Read returns the line at index.
func (p *Partition) Read(index uint32) flit.Line {
	p.mustBeInRange(index)
	p.reads++

	if l, ok := p.lines[index]; ok {
		return *l
	}

	return flit.Line{}
}

// Write stores a line at index.
func (p *Partition) Write(index uint32, line flit.Line) {
	p.mustBeInRange(index)
	p.writes++

	l := line
	p.lines[index] = &l
}

// Accesses returns the number of reads and writes serviced.
func (p *Partition) Accesses() (reads, writes uint64) {
	return p.reads, p.writes
}

// TouchedLines returns the number of lines that hold written data.
func (p *Partition) TouchedLines() int {
	return len(p.lines)
}

func (p *Partition) mustBeInRange(index uint32) {
	if int(index) >= p.numLines {
		log.Panicf("line %d out of partition range %d", index, p.numLines)
	}
}
