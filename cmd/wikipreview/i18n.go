// Package main provides localization for the wikipreview CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Logging":       "ログ",
		"Debug":         "デバッグ",
		"Browser":       "ブラウザ設定",
		"Content":       "コンテンツ",
		"Previews":      "プレビュー",
		"Output":        "出力先",

		// Root command
		"Generate and cache themed article previews": "テーマ別の記事プレビューを生成してキャッシュ",
		"wikipreview renders a wiki article and its home feed under every reading theme, and keeps the thumbnails in a memory and disk cache.": "wikipreviewはWiki記事とホームフィードを各読書テーマで描画し、サムネイルをメモリとディスクにキャッシュします。",

		// Commands
		"Generate every preview permutation for a theme": "テーマのすべてのプレビューを生成",
		"Render one preview and save it as PNG":          "プレビューを1枚描画してPNGで保存",
		"Remove every cached preview":                    "キャッシュ済みのプレビューをすべて削除",
		"Remove cached previews of other versions":       "他のバージョンのキャッシュ済みプレビューを削除",

		// Flags
		"YAML configuration file":               "YAML設定ファイル",
		"Root directory of the disk cache":      "ディスクキャッシュのルートディレクトリ",
		"App version embedded in cache keys":    "キャッシュキーに埋め込むアプリのバージョン",
		"Log level (debug, info, warn, error)":  "ログレベル（debug, info, warn, error）",
		"Suppress all log output":               "全てのログ出力を抑制",
		"Enable debug output":                   "デバッグ出力を有効化",
		"Directory for debug output":            "デバッグ出力のディレクトリ",
		"Path to Chrome executable":             "Chrome実行ファイルのパス",
		"Run browser in non-headless mode":      "ブラウザを非ヘッドレスモードで実行",
		"Article shown in table previews":       "表プレビューに表示する記事",
		"Active reading theme":                  "現在の読書テーマ",
		"Theme previews to generate":            "生成するテーマプレビュー",
		"Preview kind (theme, table)":           "プレビューの種類（theme, table）",
		"Reading theme":                         "読書テーマ",
		"Collapse tables (table previews only)": "表を折りたたむ（表プレビューのみ）",
		"Output execution summary to file (Markdown for .md, plain text otherwise)": "実行サマリーをファイルに出力（.md は Markdown、それ以外はテキスト）",

		// Runtime messages
		"Interrupted, shutting down...":     "中断されました。シャットダウン中...",
		"Output path argument is required":  "出力パス引数が必要です",
		"Preview saved to %s (%dx%d, %s)":   "プレビューを %s に保存しました (%dx%d, %s)",
		"Removed %d stale previews":         "古いプレビューを %d 件削除しました",
		"Run %s %s in %d ms":                "ラン %s は %[2]s (%[3]d ms)",
		"  %s cache: %d entries, %s of %s":  "  %s キャッシュ: %d 件, %s / %s",
		"Generation %s":                     "生成は %s で終了しました",
	})
}
