// Package mcp exposes the memory game to AI agents over the Model Context
// Protocol.
//
// Client registers one MCP tool per game operation and proxies every call to
// the REST API, so agents see exactly the state human players see:
//   - create_session, list_sessions, get_session
//   - game_state, flip_tile, bulk_flip, reset_game, flip_history
//   - list_configs, game_instructions
//
// Results are rendered as text. The board is printed in a near-square grid,
// face-down tiles as ??, the pending tile with a trailing *, solved tiles in
// brackets.
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: mount client.HTTPHandler() at /mcp
package mcp
