package server

import (
	"net/http"
	"sync"
	"time"

	"overworld-server/internal/domain"
	"overworld-server/internal/engine"
	"overworld-server/internal/network"
	"overworld-server/pkg/api"
	"overworld-server/pkg/logger"
	"overworld-server/pkg/utils"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между Websocket и Service.
// Send никогда не закрывается: запись прекращается по done.
type Client struct {
	Service *engine.Service
	Conn    *websocket.Conn
	Send    chan api.ServerResponse

	done     chan struct{}
	doneOnce sync.Once

	sprite  string
	channel *network.Conn
}

func NewClient(svc *engine.Service, conn *websocket.Conn) *Client {
	return &Client{
		Service: svc,
		Conn:    conn,
		Send:    make(chan api.ServerResponse, 256),
		done:    make(chan struct{}),
	}
}

// send кладёт сообщение в очередь writePump, не блокируясь
func (c *Client) send(msg api.ServerResponse) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) sendError(text string) {
	c.send(api.ServerResponse{Type: api.TypeError, MySprite: c.sprite, Error: text})
}

func (c *Client) stop() {
	c.doneOnce.Do(func() { close(c.done) })
}

// readPump: LOGIN, затем INPUT и ACK до разрыва соединения
func (c *Client) readPump() {
	log := logger.For("client")
	var updates chan api.ServerResponse

	defer func() {
		if updates != nil {
			c.Service.Hub.UnregisterChan(c.sprite, updates)
		}
		if c.channel != nil {
			c.channel.Close()
			c.Service.Leave(c.sprite, c.channel)
		}
		c.stop()
		if err := c.Conn.Close(); err != nil {
			log.WithError(err).Debug("failed to close websocket connection")
		}
		if c.sprite != "" {
			log.WithField("sprite", c.sprite).Info("Client disconnected")
		}
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// 1. HANDSHAKE (LOGIN)
	var loginCmd api.ClientCommand
	if err := c.Conn.ReadJSON(&loginCmd); err != nil {
		log.WithError(err).Warn("Handshake failed")
		return
	}
	if loginCmd.Action != api.ActionLogin {
		c.sendError("expected " + api.ActionLogin)
		return
	}
	login, err := api.Decode[api.LoginPayload](loginCmd.Payload)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	// 2. ПОДПИСКА до входа, чтобы не пропустить снимок с собственным появлением
	c.sprite = login.Sprite
	if c.sprite == "" {
		c.sprite = utils.GuestName()
	}
	updates = c.Service.Hub.Register(c.sprite)
	go c.forward(updates)

	// 3. ПРИВЯЗКА КАНАЛА ОБМЕНА
	channel := network.NewConn(c.sprite, c.send, c.Service.Config().ChannelTimeout)
	created, err := c.Service.Login(c.sprite, channel)
	if err != nil {
		channel.Close()
		c.sendError(err.Error())
		return
	}
	c.channel = channel

	log.WithFields(logrus.Fields{
		"sprite":  c.sprite,
		"created": created,
	}).Info("Client logged in")

	c.send(api.ServerResponse{
		Type:     api.TypeWelcome,
		Tick:     c.Service.Dispatcher.CurrentTick(),
		MySprite: c.sprite,
	})
	// Существующему игроку сразу показываем его карту
	if me, ok := c.Service.World.Sprite(c.sprite); ok {
		view := c.Service.MapView(me.Map)
		view.MySprite = c.sprite
		c.send(view)
	}

	// 4. ЦИКЛ ЧТЕНИЯ КОМАНД
	for {
		var cmd api.ClientCommand
		if err := c.Conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("sprite", c.sprite).Warn("WS error")
			}
			return
		}
		c.handle(cmd)
	}
}

func (c *Client) handle(cmd api.ClientCommand) {
	switch cmd.Action {
	case api.ActionInput:
		in, err := api.Decode[api.InputPayload](cmd.Payload)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		var target domain.Position
		if in.Target != nil {
			target = domain.Position{X: in.Target.X, Y: in.Target.Y}
		}
		if err := c.Service.Input(c.sprite, in.Input, target); err != nil {
			c.sendError(err.Error())
		}

	case api.ActionAck:
		ack, err := api.Decode[api.AckPayload](cmd.Payload)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.channel.Deliver(ack)

	default:
		c.sendError("unknown action " + cmd.Action)
	}
}

// forward пересылает снимки из хаба в очередь записи
func (c *Client) forward(updates <-chan api.ServerResponse) {
	for msg := range updates {
		if !c.send(msg) {
			select {
			case <-c.done:
				return
			default:
				logger.For("client").WithField("sprite", c.sprite).Debug("Update dropped: send queue full")
			}
		}
	}
}

// writePump отправляет данные клиенту + Ping
func (c *Client) writePump() {
	log := logger.For("client")
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case message := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.WithError(err).Warn("failed to set write deadline")
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				log.WithError(err).Debug("write json message failed")
				c.stop()
				return
			}

		case <-c.done:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			// Дописываем то, что успели положить в очередь (например, ERROR)
			for flushed := false; !flushed; {
				select {
				case message := <-c.Send:
					if err := c.Conn.WriteJSON(message); err != nil {
						return
					}
				default:
					flushed = true
				}
			}
			if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
				log.WithError(err).Debug("write close message failed")
			}
			return

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.WithError(err).Debug("ping failed")
				c.stop()
				return
			}
		}
	}
}
