package sealevel

import (
	"encoding/base64"

	"k8s.io/klog/v2"
)

type Logger interface {
	Log(s string)
}

// LogRecorder collects per-execution program logs in order.
type LogRecorder struct {
	Logs []string
}

func (l *LogRecorder) Log(s string) {
	l.Logs = append(l.Logs, s)
}

func (execCtx *ExecutionCtx) ProgramLog(msg string) {
	klog.Infof("Program log: %s", msg)
	if execCtx.Log != nil {
		execCtx.Log.Log("Program log: " + msg)
	}
}

// ProgramLogData emits fields base64-encoded on a single log line, matching
// the sol_log_data wire convention consumed by indexers.
func (execCtx *ExecutionCtx) ProgramLogData(fields [][]byte) {
	msg := "Program data:"
	for _, field := range fields {
		msg += " " + base64.StdEncoding.EncodeToString(field)
	}
	klog.Info(msg)
	if execCtx.Log != nil {
		execCtx.Log.Log(msg)
	}
}
