package ws

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"matchlink/internal/domain"
	"matchlink/internal/security"
	"matchlink/internal/service"
)

type wsAuthError struct {
	status int
	msg    string
}

func (e wsAuthError) Error() string {
	return e.msg
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// extractToken pulls the bearer token from the handshake, checked in
// precedence order: Authorization header, Sec-WebSocket-Protocol auth field,
// token query parameter.
func extractToken(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token != "" {
			return token, nil
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			token := parts[1]
			if token != "" {
				return token, nil
			}
		}
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}

	return "", wsAuthError{status: http.StatusUnauthorized, msg: "missing bearer token"}
}

// MakeHandler returns the HTTP handler for the /ws endpoint.
// Authenticates the handshake, registers the connection in the hub, then
// dispatches events:
//   - joinChat / leaveChat -> room membership, joinedChat / leftChat acks
//   - sendMessage          -> persist, broadcast newMessage, ack messageSent
//   - editMessage          -> persist, broadcast messageEdited
//   - deleteMessage        -> persist, broadcast messageDeleted
//   - typing / stopTyping  -> userTyping / userStoppedTyping to others in room
func MakeHandler(
	hub *Hub,
	tokens *security.TokenService,
	profiles domain.ProfileRepository,
	msgSvc *service.MessageService,
	allowedOrigins []string,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
		Subprotocols: []string{
			"bearer",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		tokenStr, err := extractToken(r)
		if err != nil {
			if authErr, ok := err.(wsAuthError); ok {
				http.Error(w, authErr.msg, authErr.status)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		userID, err := tokens.Parse(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		profile, err := profiles.GetByUserID(ctx, userID)
		if err != nil || profile == nil {
			http.Error(w, "profile not found", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := hub.Register(profile.ID, conn)
		defer hub.Unregister(client)

		client.Send(map[string]any{
			"event":     "connected",
			"profileId": profile.ID,
		})

		for {
			var payload map[string]any
			if err := conn.ReadJSON(&payload); err != nil {
				break
			}
			event, _ := payload["event"].(string)
			switch event {

			case "joinChat":
				chatID := payloadID(payload, "chatId")
				if chatID == 0 {
					sendError(client, "joinChat requires chatId")
					continue
				}
				// Participancy was enforced when the chat was created;
				// the join itself is deliberately permissive.
				hub.JoinRoom(client, chatID)
				// Best effort: a read-marking failure must not block
				// the join.
				if err := msgSvc.MarkRead(ctx, profile.ID, chatID); err != nil {
					log.Printf("ws: mark read on join chat %d: %v", chatID, err)
				}
				client.Send(map[string]any{
					"event":  "joinedChat",
					"chatId": chatID,
				})

			case "leaveChat":
				chatID := payloadID(payload, "chatId")
				if chatID == 0 {
					sendError(client, "leaveChat requires chatId")
					continue
				}
				hub.LeaveRoom(client, chatID)
				client.Send(map[string]any{
					"event":  "leftChat",
					"chatId": chatID,
				})

			case "sendMessage":
				chatID := payloadID(payload, "chatId")
				content, _ := payload["content"].(string)
				if chatID == 0 {
					sendError(client, "sendMessage requires chatId and content")
					continue
				}
				msg, err := msgSvc.Send(ctx, profile.ID, chatID, content)
				if err != nil {
					log.Printf("ws: send message: %v", err)
					sendError(client, errorMessage(err, "failed to send message"))
					continue
				}
				hub.BroadcastRoom(chatID, map[string]any{
					"event":   "newMessage",
					"message": msg,
				})
				client.Send(map[string]any{
					"event":   "messageSent",
					"success": true,
					"message": msg,
				})

			case "editMessage":
				messageID := payloadID(payload, "messageId")
				content, _ := payload["content"].(string)
				if messageID == 0 {
					sendError(client, "editMessage requires messageId and content")
					continue
				}
				msg, err := msgSvc.Edit(ctx, profile.ID, messageID, content)
				if err != nil {
					log.Printf("ws: edit message %d: %v", messageID, err)
					sendError(client, errorMessage(err, "failed to edit message"))
					continue
				}
				hub.BroadcastRoom(msg.ChatID, map[string]any{
					"event":   "messageEdited",
					"message": msg,
				})

			case "deleteMessage":
				messageID := payloadID(payload, "messageId")
				if messageID == 0 {
					sendError(client, "deleteMessage requires messageId")
					continue
				}
				chatID, err := msgSvc.Delete(ctx, profile.ID, messageID)
				if err != nil {
					log.Printf("ws: delete message %d: %v", messageID, err)
					sendError(client, errorMessage(err, "failed to delete message"))
					continue
				}
				hub.BroadcastRoom(chatID, map[string]any{
					"event":     "messageDeleted",
					"messageId": messageID,
				})

			case "typing", "stopTyping":
				chatID := payloadID(payload, "chatId")
				if chatID == 0 {
					continue
				}
				out := "userTyping"
				if event == "stopTyping" {
					out = "userStoppedTyping"
				}
				hub.BroadcastRoomExcept(chatID, client, map[string]any{
					"event":     out,
					"profileId": profile.ID,
					"chatId":    chatID,
				})

			default:
				log.Printf("ws: unknown event %q from profile %d", event, profile.ID)
			}
		}
	}
}

func payloadID(payload map[string]any, key string) int64 {
	f, _ := payload[key].(float64)
	return int64(f)
}

func sendError(c *Client, msg string) {
	_ = c.Send(map[string]any{
		"event":   "error",
		"message": msg,
	})
}

// errorMessage surfaces domain errors verbatim and hides everything else
// behind a generic message.
func errorMessage(err error, generic string) string {
	for _, sentinel := range []error{
		domain.ErrNotFound,
		domain.ErrForbidden,
		domain.ErrInvalidTarget,
		domain.ErrConflict,
		domain.ErrValidation,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return generic
}
