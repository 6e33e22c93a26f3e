// Package trace is Robin's diagnostic trace sink: it emits
// one-line, HTML-comment-formatted traces of registration, cache hits,
// conversion choices and weights, so the same binary gets both structured
// leveled logs for operators (via github.com/golang/glog) and a trace
// format that can be embedded directly in generated host glue.
package trace

import (
	"fmt"
	"sync/atomic"

	"github.com/golang/glog"
)

// enabled gates the HTML-comment trace format independently of glog's own
// -v flag, so embedders can toggle it at run time without touching flags.
// (src/robin/debug/trace.h in the historical implementation).
var enabled int32

// Enable turns the HTML-comment trace format on.
func Enable() { atomic.StoreInt32(&enabled, 1) }

// Disable turns the HTML-comment trace format off; glog's own leveled logs
// are unaffected.
func Disable() { atomic.StoreInt32(&enabled, 0) }

// Enabled reports whether the trace format is currently on.
func Enabled() bool { return atomic.LoadInt32(&enabled) != 0 }

// Tracef emits one trace line at the given glog verbosity level, formatted
// as an HTML comment so it can be spliced into generated glue code without
// corrupting it. Level follows glog.V conventions: 2 is the default detail
// level used throughout the reflection package.
func Tracef(level glog.Level, format string, args ...any) {
	if !Enabled() {
		return
	}
	if glog.V(level) {
		glog.Infof("<!-- %s -->", fmt.Sprintf(format, args...))
	}
}
