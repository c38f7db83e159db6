package classify

import (
	"slices"
	"strings"

	"github.com/amishk599/expawatch/internal/model"
)

// Function codes carried by an opportunity's programme.
const (
	FunctionGTe = "GTe"
	FunctionGTa = "GTa"
	FunctionGV  = "GV"
)

// Route is one row of the application decision table.
type Route struct {
	Function string
	AtHome   bool
	Key      model.RoutingKey
}

// ApplicationRoutes is the complete application decision table. A
// (function, location) pair with no row is Suppressed.
var ApplicationRoutes = []Route{
	{Function: FunctionGTe, AtHome: true, Key: model.ChannelInternalGT},
	{Function: FunctionGTa, AtHome: true, Key: model.ChannelInternalGT},
	{Function: FunctionGTe, AtHome: false, Key: model.ChannelExternalGT},
	{Function: FunctionGTa, AtHome: false, Key: model.ChannelExternalGT},
	{Function: FunctionGV, AtHome: false, Key: model.ChannelMain},
	{Function: FunctionGV, AtHome: true, Key: model.ChannelInternalGV},
}

// Classifier maps records to routing keys. It is pure and safe for
// concurrent use.
type Classifier struct {
	targetProgramme int
	homeLocation    string
}

var _ model.Classifier = (*Classifier)(nil)

// NewClassifier returns a classifier for the given target programme code
// (signups) and home location (applications).
func NewClassifier(targetProgramme int, homeLocation string) *Classifier {
	return &Classifier{
		targetProgramme: targetProgramme,
		homeLocation:    normalize(homeLocation),
	}
}

// Classify returns the channel for rec, or model.Suppressed.
func (c *Classifier) Classify(rec model.Record) model.RoutingKey {
	switch rec.Kind {
	case model.KindSignup:
		return c.classifySignup(rec.Signup)
	case model.KindApplication:
		return c.classifyApplication(rec.Application)
	default:
		return model.Suppressed
	}
}

func (c *Classifier) classifySignup(s *model.Signup) model.RoutingKey {
	if s == nil || !slices.Contains(s.SelectedProgrammes, c.targetProgramme) {
		return model.Suppressed
	}
	return model.ChannelSignup
}

func (c *Classifier) classifyApplication(a *model.Application) model.RoutingKey {
	if a == nil {
		return model.Suppressed
	}
	function := normalize(a.FunctionCode)
	atHome := c.homeLocation != "" && normalize(a.HostLocation) == c.homeLocation
	for _, r := range ApplicationRoutes {
		if normalize(r.Function) == function && r.AtHome == atHome {
			return r.Key
		}
	}
	return model.Suppressed
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
