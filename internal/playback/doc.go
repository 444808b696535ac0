// Package playback watches a media player's position and emits a pause event
// each time playback crosses the end of an L2 phrase in a practice segment.
//
// Step holds the boundary logic and is pure given a position and a wall
// clock reading. Run polls a PositionSource on a ticker and streams events.
// The monitor only reads positions and never blocks the player.
package playback
