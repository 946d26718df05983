package session

import (
	"encoding/json"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/npezzotti/go-chatclient/internal/stats"
	"github.com/npezzotti/go-chatclient/internal/types"
)

// Publisher formats and emits outbound frames. Sends are fire-and-forget:
// failures are reported to the log and stats, never to the caller, and
// nothing is queued while disconnected.
type Publisher struct {
	log      *log.Logger
	tr       Transport
	stats    stats.StatsProvider
	validate *validator.Validate
}

func NewPublisher(tr Transport, logger *log.Logger, sp stats.StatsProvider) *Publisher {
	sp.RegisterMetric(stats.PublishFailures)

	return &Publisher{
		log:      logger,
		tr:       tr,
		stats:    sp,
		validate: validator.New(),
	}
}

type outboundMessage struct {
	Content         string `json:"content" validate:"required"`
	RoomId          string `json:"roomId" validate:"required"`
	SenderId        string `json:"senderId" validate:"required"`
	SenderFirstName string `json:"senderFirstName" validate:"required"`
	SenderLastName  string `json:"senderLastName,omitempty"`
	SenderEmail     string `json:"senderEmail,omitempty"`
}

type lastMessageUpdate struct {
	Content         string `json:"content" validate:"required"`
	SenderId        string `json:"senderId" validate:"required"`
	SenderFirstName string `json:"senderFirstName" validate:"required"`
}

// SendMessage emits two companion frames per chat send: the message itself
// and the room-list last-message update. The two are not transactional;
// one may succeed while the other fails and the room list transiently
// shows a stale summary.
func (p *Publisher) SendMessage(roomId, content string, sender types.User) {
	msg := outboundMessage{
		Content:         content,
		RoomId:          roomId,
		SenderId:        sender.Id,
		SenderFirstName: sender.FirstName,
		SenderLastName:  sender.LastName,
		SenderEmail:     sender.Email,
	}
	if err := p.validate.Struct(msg); err != nil {
		p.log.Println("invalid outbound message:", err)
		p.stats.Incr(stats.PublishFailures)
		return
	}

	p.publish(sendMessageDest(roomId), msg)
	p.publish(updateLastMessageDest(roomId), lastMessageUpdate{
		Content:         content,
		SenderId:        sender.Id,
		SenderFirstName: sender.FirstName,
	})
}

// RefreshParticipants asks the server to re-broadcast both participant
// snapshots for the room, after a join, leave or delete.
func (p *Publisher) RefreshParticipants(roomId string) {
	p.publishRaw(updateUsersDest(roomId), nil)
	p.publishRaw(updateAllUsersDest(roomId), nil)
}

func (p *Publisher) publish(dest string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.log.Printf("marshal payload for %s: %v", dest, err)
		p.stats.Incr(stats.PublishFailures)
		return
	}

	p.publishRaw(dest, body)
}

func (p *Publisher) publishRaw(dest string, body []byte) {
	if err := p.tr.Publish(dest, body); err != nil {
		p.log.Printf("publish %s: %v", dest, err)
		p.stats.Incr(stats.PublishFailures)
	}
}
