package eventpubsub

import (
	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"
)

var bus = EventBus.New()

// Init replaces the process bus with a fresh one, dropping all existing
// subscriptions. Tests use it to isolate themselves.
func Init() {
	bus = EventBus.New()
}

func Publish(publisherName string, topic string, event interface{}) {
	log.Debugf("[%v] Published to topic %s", publisherName, topic)
	bus.Publish(topic, event)
}

func Subscribe(subscriberName string, topic string, callbackFn interface{}) error {
	if err := bus.SubscribeAsync(topic, callbackFn, false); err != nil {
		return err
	}

	log.Infof("[%v] Subscribed to topic %s", subscriberName, topic)
	return nil
}

// WaitAsync blocks until all async callbacks published so far have
// finished, so a cmd can drain progress output before exiting.
func WaitAsync() {
	bus.WaitAsync()
}
