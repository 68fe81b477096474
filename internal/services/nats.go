package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	SubjectPhotoUploaded = "photos.uploaded"
	SubjectPhotoDeleted  = "photos.deleted"
	SubjectAlbumCreated  = "albums.created"
	SubjectAlbumDeleted  = "albums.deleted"

	eventStream = "photo-events"
)

// Publisher announces storage changes to whoever listens.
type Publisher interface {
	Publish(subject string, payload interface{}) error
	Close()
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(string, interface{}) error { return nil }
func (NopPublisher) Close()                            {}

// NATSPublisher publishes through JetStream so events survive consumer
// restarts.
type NATSPublisher struct {
	nc  *nats.Conn
	js  nats.JetStreamContext
	log *logger.Logger
}

// ConnectNATS connects, creates the JetStream context and makes sure the
// event stream exists.
func ConnectNATS(url string, log *logger.Logger) (*NATSPublisher, error) {
	log = log.Named("nats")

	nc, err := nats.Connect(url,
		nats.Name("photo-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Info("connection closed")
		}),
	)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	p := &NATSPublisher{nc: nc, js: js, log: log}
	if err := p.ensureStream(); err != nil {
		log.Warn("failed to ensure stream", zap.String("stream", eventStream), zap.Error(err))
	}

	log.Info("connected and JetStream initialized", zap.String("url", url))
	return p, nil
}

func (p *NATSPublisher) ensureStream() error {
	if _, err := p.js.StreamInfo(eventStream); err == nil {
		return nil
	}

	_, err := p.js.AddStream(&nats.StreamConfig{
		Name:     eventStream,
		Subjects: []string{"photos.*", "albums.*"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}

func (p *NATSPublisher) Publish(subject string, payload interface{}) error {
	if p.js == nil {
		return errors.New("jetstream not initialized")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if _, err := p.js.Publish(subject, data, nats.MsgId(uuid.New().String())); err != nil {
		p.log.Error("publish failed", zap.String("subject", subject), zap.Error(err))
		return err
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil && !p.nc.IsClosed() {
		p.nc.Close()
	}
}
