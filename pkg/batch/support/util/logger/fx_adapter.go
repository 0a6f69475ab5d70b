package logger

import (
	"strings"

	"go.uber.org/fx/fxevent"
)

// FxLoggerAdapter routes Fx lifecycle events into this package's leveled logger.
// Wiring noise (Provided, Invoking) goes to DEBUG; failures go to ERROR.
type FxLoggerAdapter struct{}

// NewFxLoggerAdapter creates a new instance of FxLoggerAdapter.
func NewFxLoggerAdapter() fxevent.Logger {
	return &FxLoggerAdapter{}
}

// LogEvent logs events from Fx.
func (l *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			Errorf("OnStart hook %s failed after %s: %v", shortFuncName(e.FunctionName), e.Runtime, e.Err)
			return
		}
		Debugf("OnStart hook %s done in %s", shortFuncName(e.FunctionName), e.Runtime)
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			Errorf("OnStop hook %s failed after %s: %v", shortFuncName(e.FunctionName), e.Runtime, e.Err)
			return
		}
		Debugf("OnStop hook %s done in %s", shortFuncName(e.FunctionName), e.Runtime)
	case *fxevent.Supplied:
		if e.Err != nil {
			Errorf("Supply of %s failed: %v", e.TypeName, e.Err)
		}
	case *fxevent.Provided:
		if e.Err != nil {
			Errorf("Provide via %s failed: %v", shortFuncName(e.ConstructorName), e.Err)
			return
		}
		Debugf("Provided %s", strings.Join(e.OutputTypeNames, ", "))
	case *fxevent.Invoked:
		if e.Err != nil {
			Errorf("Invoke of %s failed: %v", shortFuncName(e.FunctionName), e.Err)
		}
	case *fxevent.Stopping:
		Infof("Received %s, stopping.", strings.ToUpper(e.Signal.String()))
	case *fxevent.RollingBack:
		Errorf("Start failed, rolling back: %v", e.StartErr)
	case *fxevent.RolledBack:
		if e.Err != nil {
			Errorf("Rollback failed: %v", e.Err)
		}
	case *fxevent.Started:
		if e.Err != nil {
			Errorf("Start failed: %v", e.Err)
			return
		}
		Debugf("Application started.")
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			Errorf("Custom logger initialization failed: %v", e.Err)
		}
	}
}

// shortFuncName trims the anonymous-function suffix Fx appends (".func1").
func shortFuncName(funcName string) string {
	if idx := strings.LastIndex(funcName, ".func"); idx != -1 {
		return funcName[:idx]
	}
	return funcName
}
