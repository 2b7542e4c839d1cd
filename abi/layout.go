package abi

import (
	"encoding/binary"
	"fmt"
)

// TimeValSize is the encoded size of TimeVal.
const TimeValSize = 16

// TimeVal is the get_time result.
type TimeVal struct {
	Sec  uint64
	Usec uint64
}

// Encode returns the little-endian layout of t.
func (t TimeVal) Encode() []byte {
	buf := make([]byte, TimeValSize)
	binary.LittleEndian.PutUint64(buf[0:], t.Sec)
	binary.LittleEndian.PutUint64(buf[8:], t.Usec)
	return buf
}

// DecodeTimeVal parses the layout produced by TimeVal.Encode.
func DecodeTimeVal(data []byte) (TimeVal, error) {
	if len(data) < TimeValSize {
		return TimeVal{}, fmt.Errorf("timeval: short buffer %d", len(data))
	}
	return TimeVal{
		Sec:  binary.LittleEndian.Uint64(data[0:]),
		Usec: binary.LittleEndian.Uint64(data[8:]),
	}, nil
}

// Millis returns t in milliseconds.
func (t TimeVal) Millis() uint64 { return t.Sec*1000 + t.Usec/1000 }

// TaskInfoSize is the encoded size of TaskInfo.
const TaskInfoSize = 4 + 4*MaxSyscallNum + 8

// TaskInfo is the task_info result.
type TaskInfo struct {
	Status       uint32
	SyscallTimes [MaxSyscallNum]uint32
	// Time is the running time in milliseconds since the first dispatch.
	Time uint64
}

// Encode returns the little-endian layout of t.
func (t *TaskInfo) Encode() []byte {
	buf := make([]byte, TaskInfoSize)
	binary.LittleEndian.PutUint32(buf, t.Status)
	for i, n := range t.SyscallTimes {
		binary.LittleEndian.PutUint32(buf[4+4*i:], n)
	}
	binary.LittleEndian.PutUint64(buf[4+4*MaxSyscallNum:], t.Time)
	return buf
}

// DecodeTaskInfo parses the layout produced by TaskInfo.Encode.
func DecodeTaskInfo(data []byte) (*TaskInfo, error) {
	if len(data) < TaskInfoSize {
		return nil, fmt.Errorf("taskinfo: short buffer %d", len(data))
	}
	ret := &TaskInfo{Status: binary.LittleEndian.Uint32(data)}
	for i := range ret.SyscallTimes {
		ret.SyscallTimes[i] = binary.LittleEndian.Uint32(data[4+4*i:])
	}
	ret.Time = binary.LittleEndian.Uint64(data[4+4*MaxSyscallNum:])
	return ret, nil
}

// ExitCodeSize is the encoded size of the waitpid exit code.
const ExitCodeSize = 4

// EncodeExitCode returns the little-endian i32 layout of code.
func EncodeExitCode(code int) []byte {
	buf := make([]byte, ExitCodeSize)
	binary.LittleEndian.PutUint32(buf, uint32(int32(code)))
	return buf
}

// DecodeExitCode parses the layout produced by EncodeExitCode.
func DecodeExitCode(data []byte) int {
	if len(data) < ExitCodeSize {
		return 0
	}
	return int(int32(binary.LittleEndian.Uint32(data)))
}
