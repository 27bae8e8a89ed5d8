package domain

// Rejection explains why a raw record did not become a Hotel.
type Rejection struct {
	Reason  error
	RawName string // name as it appeared before cleaning
}

func (r *Rejection) Error() string { return r.Reason.Error() }
func (r *Rejection) Unwrap() error { return r.Reason }

// Outcome is the per-record result of normalization: either a Hotel or a
// Rejection, never both.
type Outcome struct {
	Hotel    Hotel
	Rejected *Rejection
}

func Accepted(h Hotel) Outcome { return Outcome{Hotel: h} }

func Rejected(reason error, rawName string) Outcome {
	return Outcome{Rejected: &Rejection{Reason: reason, RawName: rawName}}
}

func (o Outcome) OK() bool { return o.Rejected == nil }

// FileResult is the per-file result of a batch run. Err is set when the file
// could not be read or decoded; Outcomes is then empty.
type FileResult struct {
	Path     string
	Outcomes []Outcome
	Err      error
}

func (f FileResult) OK() bool { return f.Err == nil }
