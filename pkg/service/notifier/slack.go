package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/errs"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/utils/clock"
)

type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Slack posts alert fan-outs to a ward channel. Recipients are mentioned by
// name; mapping staff ids to Slack user ids is deliberately out of scope, the
// channel membership is the audience.
type Slack struct {
	client    slackClient
	channelID string
}

func NewSlack(token, channelID string) *Slack {
	return &Slack{
		client:    slack.New(token),
		channelID: channelID,
	}
}

var urgencyColors = map[types.Urgency]string{
	1: "#E01E5A",
	2: "#E8912D",
	3: "#ECB22E",
	4: "#2EB67D",
	5: "#868686",
}

func (x *Slack) Notify(ctx context.Context, a *alert.Alert, recipients staff.Members) (*interfaces.DeliveryReport, error) {
	names := make([]string, len(recipients))
	for i, s := range recipients {
		names[i] = s.Name
	}

	attachment := slack.Attachment{
		Color: urgencyColors[a.Urgency],
		Title: fmt.Sprintf("%s in room %s", a.Type.Label(), a.RoomNumber),
		Text:  a.Description,
		Fields: []slack.AttachmentField{
			{Title: "Urgency", Value: a.Urgency.Label(), Short: true},
			{Title: "Tier", Value: fmt.Sprintf("%d", a.CurrentTier), Short: true},
			{Title: "Respond", Value: strings.Join(names, ", ")},
		},
		Footer: a.ID.String(),
	}

	_, _, err := x.client.PostMessageContext(ctx, x.channelID,
		slack.MsgOptionText(fmt.Sprintf("%s escalation, tier %d", a.Type.Label(), a.CurrentTier), false),
		slack.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to post alert to Slack",
			goerr.T(errs.TagNotification),
			goerr.T(errs.TagExternal),
			goerr.V("channel_id", x.channelID),
		)
	}

	return &interfaces.DeliveryReport{
		Channel:   "slack",
		Delivered: len(recipients),
		SentAt:    clock.Now(ctx),
	}, nil
}
