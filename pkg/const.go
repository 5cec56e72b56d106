package pkg

const (
	HeaderTraceId   string = "X-Trace-Id"
	HeaderRequestId string = "X-Request-Id"
)

// Structured log keys shared by both services.
const (
	TraceId   string = "trace_id"
	RequestId string = "request_id"
	CycleId   string = "cycle_id"
	FileId    string = "file_id"
	Iteration string = "iteration"
)

// Amounts are generated in minor units and divided by this before they are persisted.
const AmountScaleDivisor = 100.0
