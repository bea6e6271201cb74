// Package websocket pushes dashboard updates to browsers.
//
// A Hub fans messages out to connected clients. The application subscribes
// the hub to snapshot publication, so every successful reload reaches open
// dashboards as a "snapshot" message carrying the new fingerprint and
// pipeline statistics. Clients that fall behind are disconnected.
package websocket
