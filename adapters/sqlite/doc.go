// Package exportsqlite renders exports as a standalone SQLite database file.
//
// The renderer is not part of the default registry; register it explicitly:
//
//	renderers := export.DefaultRenderers()
//	_ = renderers.Register(export.FormatSQLite, exportsqlite.Renderer{})
//
// The table name comes from RenderOptions.SQLite.TableName, then
// Renderer.TableName, and falls back to "data".
package exportsqlite
