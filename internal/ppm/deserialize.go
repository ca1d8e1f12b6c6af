package ppm

import (
	"encoding/binary"
	"io"
)

// DecodedGroup is one entry of the compressed-graph block (§6), edges
// expressed as indices into the same decoded slice.
type DecodedGroup struct {
	Type Variant
	Next int32 // -1 = none
	A    int32
	B    int32
}

// DecodedContainer is one entry of the segment container list (§6): which
// distinct segment a tree occurrence referenced, and under which pid.
type DecodedContainer struct {
	SegID uint32
	PID   int
}

// DecodedDict is one dictionary read back from the trailing dictionary
// block of a bucketed model.
type DecodedDict struct {
	Supremum []float64
	Mean     []float64
}

// DecodedBucketedSeg is one entry of a bucketed-segment block.
type DecodedBucketedSeg struct {
	CalcDictIdx uint32
	ComDictIdx  uint32
	Letters     []Letter
}

// DecodedModel is a binary model read back into plain data, independent of
// any live Context: enough to check the testable round-trip property (raw
// path) and to inspect a bucketed model's shape without rebuilding an
// arena. Exactly one of RawSegs / BucketedSegs is populated, matching
// WriteModel's raw-xor-bucketed invariant.
type DecodedModel struct {
	Containers []DecodedContainer
	Graph      []DecodedGroup

	RawSegs      []*RawSeg
	BucketedSegs []DecodedBucketedSeg
	Dicts        []DecodedDict
}

// ReadModel parses a binary model written by WriteModel (4.H, §6).
func ReadModel(r io.Reader) (*DecodedModel, error) {
	containers, err := readContainerList(r)
	if err != nil {
		return nil, err
	}
	graph, err := readGraph(r)
	if err != nil {
		return nil, err
	}

	m := &DecodedModel{Containers: containers, Graph: graph}

	var classID uint8
	if err := binary.Read(r, binary.LittleEndian, &classID); err != nil {
		return nil, IOErr("reading segment class id", err)
	}

	switch classID {
	case classIDRaw:
		m.RawSegs, err = readRawSegments(r)
	case classIDBucketed:
		m.BucketedSegs, err = readBucketedSegments(r)
		if err == nil {
			m.Dicts, err = readDictBlock(r)
		}
	default:
		return nil, ParseErr("unknown segment class id in binary model")
	}
	if err != nil {
		return nil, err
	}

	return m, nil
}

func readContainerList(r io.Reader) ([]DecodedContainer, error) {
	var c uint32
	if err := binary.Read(r, binary.LittleEndian, &c); err != nil {
		return nil, IOErr("reading container list length", err)
	}
	out := make([]DecodedContainer, c)
	for i := range out {
		var segID, pid uint32
		if err := binary.Read(r, binary.LittleEndian, &segID); err != nil {
			return nil, IOErr("reading container segid", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &pid); err != nil {
			return nil, IOErr("reading container pid", err)
		}
		out[i] = DecodedContainer{SegID: segID, PID: int(pid)}
	}
	return out, nil
}

func readGraph(r io.Reader) ([]DecodedGroup, error) {
	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return nil, IOErr("reading graph length", err)
	}
	out := make([]DecodedGroup, v)
	for i := range out {
		var typ uint8
		var next, a, b int32
		if err := binary.Read(r, binary.LittleEndian, &typ); err != nil {
			return nil, IOErr("reading group type", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &next); err != nil {
			return nil, IOErr("reading group next", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &a); err != nil {
			return nil, IOErr("reading group a", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &b); err != nil {
			return nil, IOErr("reading group b", err)
		}
		out[i] = DecodedGroup{Type: Variant(typ), Next: next, A: a, B: b}
	}
	return out, nil
}

func readRawSegments(r io.Reader) ([]*RawSeg, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, IOErr("reading raw segment count", err)
	}
	out := make([]*RawSeg, n)
	for i := range out {
		var k uint32
		if err := binary.Read(r, binary.LittleEndian, &k); err != nil {
			return nil, IOErr("reading raw segment size", err)
		}
		seg := NewRawSeg()
		for j := uint32(0); j < k; j++ {
			var tt uint8
			var weight float64
			if err := binary.Read(r, binary.LittleEndian, &tt); err != nil {
				return nil, IOErr("reading raw task type", err)
			}
			if err := binary.Read(r, binary.LittleEndian, &weight); err != nil {
				return nil, IOErr("reading raw task weight", err)
			}
			seg.Put(SegTaskType(tt), weight)
		}
		out[i] = seg
	}
	return out, nil
}

func readBucketedSegments(r io.Reader) ([]DecodedBucketedSeg, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, IOErr("reading bucketed segment count", err)
	}
	out := make([]DecodedBucketedSeg, n)
	for i := range out {
		var k, calcIdx, comIdx uint32
		if err := binary.Read(r, binary.LittleEndian, &k); err != nil {
			return nil, IOErr("reading bucketed segment size", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &calcIdx); err != nil {
			return nil, IOErr("reading calc dict index", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &comIdx); err != nil {
			return nil, IOErr("reading com dict index", err)
		}
		letters := make([]Letter, k)
		if err := binary.Read(r, binary.LittleEndian, letters); err != nil {
			return nil, IOErr("reading bucketed letters", err)
		}
		out[i] = DecodedBucketedSeg{CalcDictIdx: calcIdx, ComDictIdx: comIdx, Letters: letters}
	}
	return out, nil
}

func readDictBlock(r io.Reader) ([]DecodedDict, error) {
	var d uint32
	if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
		return nil, IOErr("reading dictionary count", err)
	}
	out := make([]DecodedDict, d)
	for i := range out {
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, IOErr("reading dictionary size", err)
		}
		supremum := make([]float64, size)
		if err := binary.Read(r, binary.LittleEndian, supremum); err != nil {
			return nil, IOErr("reading dictionary supremum", err)
		}
		mean := make([]float64, size)
		if err := binary.Read(r, binary.LittleEndian, mean); err != nil {
			return nil, IOErr("reading dictionary mean", err)
		}
		out[i] = DecodedDict{Supremum: supremum, Mean: mean}
	}
	return out, nil
}
