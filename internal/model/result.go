package model

// RoutingKey names a notification channel. The zero value means Suppressed.
type RoutingKey string

const (
	Suppressed RoutingKey = ""

	ChannelSignup     RoutingKey = "signup"
	ChannelInternalGT RoutingKey = "internal_gt"
	ChannelExternalGT RoutingKey = "external_gt"
	ChannelInternalGV RoutingKey = "internal_gv"
	ChannelMain       RoutingKey = "main"
)

// RoutingKeys is the closed set of channels, in display order.
var RoutingKeys = []RoutingKey{
	ChannelSignup,
	ChannelInternalGT,
	ChannelExternalGT,
	ChannelInternalGV,
	ChannelMain,
}

// ChannelsFor returns the channels a kind can route to.
func ChannelsFor(kind Kind) []RoutingKey {
	switch kind {
	case KindSignup:
		return []RoutingKey{ChannelSignup}
	case KindApplication:
		return []RoutingKey{ChannelInternalGT, ChannelExternalGT, ChannelInternalGV, ChannelMain}
	default:
		return nil
	}
}

func (k RoutingKey) String() string {
	if k == Suppressed {
		return "suppressed"
	}
	return string(k)
}

// InsertResult is the outcome of RecordStore.InsertIfAbsent. The zero value
// is InsertUnknown so an unset result is never read as a successful insert.
type InsertResult int

const (
	InsertUnknown InsertResult = iota
	Inserted
	Duplicate
	StoreFailed
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	case StoreFailed:
		return "store_failed"
	default:
		return "unknown"
	}
}

// NotifyResult is the outcome of Notifier.Notify.
type NotifyResult int

const (
	Sent NotifyResult = iota
	NotifySkipped
	NotifyFailed
)

func (r NotifyResult) String() string {
	switch r {
	case Sent:
		return "sent"
	case NotifySkipped:
		return "skipped"
	default:
		return "failed"
	}
}
