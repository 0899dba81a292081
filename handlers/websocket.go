package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
	log "github.com/sirupsen/logrus"
)

// SendSocketFunc returns true if data was successfully sent
type SendSocketFunc func([]byte) bool
type ConnectedClient struct {
	fun   SendSocketFunc
	close func()
}

// ConnectedClients is needed as a tracking session may be watched by more than one socket
type ConnectedClients []*ConnectedClient

var (
	Watchers = cmap.New[ConnectedClients]()
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

func addClient(id string, c *ConnectedClient) {
	Watchers.Upsert(id, ConnectedClients{c}, func(exist bool, valueInMap, newValue ConnectedClients) ConnectedClients {
		if exist {
			return append(valueInMap, c)
		}
		return newValue
	})
}

func removeClient(id string, c *ConnectedClient) {
	Watchers.Upsert(id, ConnectedClients{}, func(exist bool, valueInMap, newValue ConnectedClients) ConnectedClients {
		if !exist {
			return newValue
		}
		for _, oc := range valueInMap {
			if oc == c {
				continue
			}
			newValue = append(newValue, oc)
		}
		return newValue
	})
	Watchers.RemoveCb(id, func(key string, valueInMap ConnectedClients, exists bool) bool {
		return exists && len(valueInMap) == 0
	})
}

func notifyWatchers(id string, data []byte) {
	clients, ok := Watchers.Get(id)
	if !ok {
		return
	}
	for _, c := range clients {
		c.fun(data)
	}
}

// closeWatchers disconnects everyone watching a removed session
func closeWatchers(id string) {
	clients, ok := Watchers.Pop(id)
	if !ok {
		return
	}
	for _, c := range clients {
		c.close()
	}
}

// SessionWebSocket streams frames in and outcomes out. Every socket watching a session
// receives all of its outcomes, also those of frames sent over HTTP.
func SessionWebSocket(c *gin.Context) {
	r := SessionRequest{}
	if err := c.ShouldBindQuery(&r); err != nil {
		c.JSON(http.StatusBadRequest, BadRequestResponse)
		return
	}
	id := trackingID(c, r.ID)
	if _, err := Tracker.Get(id); err != nil {
		c.JSON(http.StatusNotFound, SessionNotFoundResponse)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer conn.Close()

	// Setup client, HTTP handlers of the same session write to it too
	var writeMutex sync.Mutex
	isConnected := true
	client := ConnectedClient{}
	client.fun = func(data []byte) bool {
		writeMutex.Lock()
		defer writeMutex.Unlock()
		if !isConnected {
			return false
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Println("write err:", err)
			isConnected = false
			return false
		}
		return true
	}
	client.close = func() {
		writeMutex.Lock()
		isConnected = false
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
			time.Now().Add(time.Second))
		writeMutex.Unlock()
		conn.Close()
	}
	addClient(id, &client)
	defer removeClient(id, &client)
	// Main read cycle
	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			log.Debugln("read err:", err)
			break
		}
		if string(message) == "ping" {
			client.fun([]byte("pong"))
			continue
		}
		if string(message) == "pong" || mt != websocket.TextMessage {
			continue
		}
		processMessage(id, &client, message)
	}
}

func processMessage(id string, client *ConnectedClient, message []byte) {
	msg := WSMessage{}
	if err := json.Unmarshal(message, &msg); err != nil {
		client.fun(wsErrorMessage(http.StatusBadRequest, Response{"invalid JSON message"}))
		return
	}
	switch msg.Type {
	case WSMessageTypeFrame:
		// Outcomes are delivered through notifyWatchers, this client included
		if _, status, errResp := evaluateFrame(id, toFrame(msg.Landmarks)); status != http.StatusOK {
			client.fun(wsErrorMessage(status, errResp))
		}
	case WSMessageTypeReset:
		if err := Tracker.Reset(id); err != nil {
			client.fun(wsErrorMessage(http.StatusNotFound, SessionNotFoundResponse))
		}
	default:
		client.fun(wsErrorMessage(http.StatusBadRequest, Response{"unknown message type"}))
	}
}
