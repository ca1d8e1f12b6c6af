// Package ppm implements the Parallel Program Model intermediate representation,
// its structural miner, the task-segment clustering/quantization pipeline and
// the binary serializer.
package ppm

// TaskType is the type code of a task in the source task table (§6).
type TaskType uint8

const (
	TaskStart    TaskType = 0
	TaskEnd      TaskType = 1
	TaskFork     TaskType = 2
	TaskJoin     TaskType = 3
	TaskCalc     TaskType = 4
	TaskCom      TaskType = 5
	TaskForkEnd  TaskType = 10
)

// String returns the textual name of the task type.
func (t TaskType) String() string {
	switch t {
	case TaskStart:
		return "start"
	case TaskEnd:
		return "end"
	case TaskFork:
		return "fork"
	case TaskJoin:
		return "join"
	case TaskCalc:
		return "calc"
	case TaskCom:
		return "com"
	case TaskForkEnd:
		return "fork_end"
	default:
		return "unknown"
	}
}

// SegTaskType is the task-type axis used inside a segment: calc or com only.
type SegTaskType uint8

const (
	// SegCalc indexes calculation tasks.
	SegCalc SegTaskType = 0
	// SegCom indexes communication tasks.
	SegCom SegTaskType = 1
	// SegTaskTypeCount is the number of task-type axes a segment tracks.
	SegTaskTypeCount = 2
)

// String returns the textual name of the segment task type.
func (t SegTaskType) String() string {
	if t == SegCalc {
		return "calc"
	}
	return "com"
}

// Task is one entry of the parsed task table (§6 text input format).
//
// Next holds up to two successor task numbers: Next[0] is always present for
// start/calc/com/join/fork_end; Next[1] is the second fork branch (0 means an
// empty branch). Weight is populated for calc/com. Dest is the communication
// destination pid (0 = broadcast), only meaningful for com.
type Task struct {
	No     int
	Pid    int
	Type   TaskType
	Mem    int64
	Weight float64
	Dest   int
	Next   [2]int
}

// Table is the task array produced by the external text parser (§6). Task
// numbers are array indices; Table[0] is unused unless a task numbered 0
// exists in the source.
type Table struct {
	Head  int
	Tasks []Task
}

// Get returns the task at the given task number, or false if out of range.
func (t *Table) Get(no int) (Task, bool) {
	if no < 0 || no >= len(t.Tasks) {
		return Task{}, false
	}
	return t.Tasks[no], true
}
