package router

import (
	"net/http"

	"team-inbox-backend/internal/api"
	"team-inbox-backend/internal/api/endpoints"
	"team-inbox-backend/internal/api/middleware"
)

// RealtimeRoutes wires the websocket handshake and the internal emit
// endpoints. The handshake authenticates itself via the token query param
// during Connect, the emit endpoints require a bearer token up front.
func RealtimeRoutes(prefix string) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		realtimeEndpoints := endpoints.NewRealtimeEndpoints(s.Gateway(), s.Handler())

		mux.HandleFunc(prefix+"/ws", s.MakeHTTPHandleFunc(realtimeEndpoints.Websocket))
		mux.HandleFunc(prefix+"/messages", s.MakeHTTPHandleFunc(realtimeEndpoints.Messages, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/statuses", s.MakeHTTPHandleFunc(realtimeEndpoints.Statuses, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/assignments", s.MakeHTTPHandleFunc(realtimeEndpoints.Assignments, middleware.ValidateUserJWT))
		mux.HandleFunc(prefix+"/conversation-status", s.MakeHTTPHandleFunc(realtimeEndpoints.ConversationStatus, middleware.ValidateUserJWT))
	}
}
