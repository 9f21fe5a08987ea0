package leave

// Status is the approval state of a leave record. pending is the initial
// state; approved and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var statusLabels = map[Status]string{
	StatusPending:  "審核中",
	StatusApproved: "已核准",
	StatusRejected: "已退回",
}

// Label returns the localized display name shown to users.
func (s Status) Label() string {
	return statusLabels[s]
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether a record may move from s to next. Only a
// pending record moves, and only into a terminal status.
func (s Status) CanTransition(next Status) bool {
	return s == StatusPending && next.Terminal()
}

// ParseStatus accepts either the storage token or the localized label.
func ParseStatus(raw string) (Status, bool) {
	for status, label := range statusLabels {
		if raw == string(status) || raw == label {
			return status, true
		}
	}
	return "", false
}
