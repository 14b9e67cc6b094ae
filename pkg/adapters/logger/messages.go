package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Generation runs (info)
		"Generation run %s started for theme %s (%d previews)":   "生成ラン %s をテーマ %s で開始しました (%d 件)",
		"Generation run %s %s in %d ms: %d generated, %d failed": "生成ラン %s は %[2]s (%[3]d ms): 生成 %[4]d 件, 失敗 %[5]d 件",
		"Theme changed to %s, regenerating":                      "テーマが %s に変更されました。再生成します",
		"Cleared %d cached and %d stored previews":               "キャッシュ済み %d 件と保存済み %d 件のプレビューを削除しました",
		"Pruned %d stale previews from %s":                       "%[2]s から古いプレビューを %[1]d 件削除しました",
		"Preview service started (version %s, theme %s)":         "プレビューサービスを開始しました (バージョン %s, テーマ %s)",
		"Preview service closed":                                 "プレビューサービスを終了しました",
		"Summary written to %s":                                  "サマリーを %s に書き出しました",
		"Interrupted, shutting down...":                          "中断されました。シャットダウン中...",

		// Host pool
		"Host %s registered (%d live, %d waiters resumed)": "ホスト %s を登録しました (稼働 %d, 再開した待機 %d)",
		"Host %s unregistered":                             "ホスト %s の登録を解除しました",
		"No live host, queueing waiter":                    "稼働中のホストがありません。待機します",
		"Launching browser in headless mode":               "ヘッドレスモードでブラウザを起動中",
		"Launching browser in visible mode":                "表示モードでブラウザを起動中",
		"Browser closed":                                   "ブラウザを閉じました",

		// Render stages (debug)
		"Loading article %s":                              "記事 %s を読み込み中",
		"Article loaded in %d ms":                         "記事を %d ms で読み込みました",
		"Building article document for %s":                "%s の記事ドキュメントを構築中",
		"Building feed document for %s":                   "%s のフィードドキュメントを構築中",
		"Loading document for %s (%dx%d @%.2fx)":          "%s のドキュメントを読み込み中 (%dx%d @%.2fx)",
		"Document ready: load %d ms, ready %d ms":         "ドキュメント準備完了: 読み込み %d ms, 表示準備 %d ms",
		"Captured %s: %dx%d in %d ms":                     "%s をキャプチャしました: %dx%d (%d ms)",
		"Capturing %d states from one %s document":        "1 つの %[2]s ドキュメントから %[1]d 状態をキャプチャ中",
		"Cropping %s: %+v -> %dx%d":                       "%s を切り抜き中: %+v -> %dx%d",
		"Split composed: %dx%d":                           "分割画像を合成しました: %dx%d",
		"Placeholder drawn: %q %dx%d":                     "プレースホルダーを描画しました: %q %dx%d",
		"Rendered %s in %d ms":                            "%s を %d ms で描画しました",
		"Memory hit: %s":                                  "メモリヒット: %s",
		"Cached %s":                                       "%s をキャッシュしました",

		// Warnings
		"Timed out waiting for a host after %s":                     "%s 待ってもホストが得られませんでした",
		"No state event for %s within %d ms, verifying":             "%s の状態イベントが %d ms 以内に届きません。検証します",
		"State %s not verified (%v), falling back to a full render": "状態 %s を検証できませんでした (%v)。完全な描画に切り替えます",
		"Surface not ready after %d ms, capturing anyway: %v":       "%d ms 経ってもサーフェスが準備できていません。そのままキャプチャします: %v",
		"Using placeholder for %s: %v":                              "%s にプレースホルダーを使用します: %v",
		"Discarding cached preview %s: %s":                          "キャッシュ済みプレビュー %s を破棄します: %s",
		"Preview %s (%s) exceeds the memory budget of %s":           "プレビュー %s (%s) がメモリ予算 %s を超えています",
		"Prefetch of %d %s previews incomplete: %v":                 "%d 件の %s プレビューの先読みが完了しませんでした: %v",

		// Errors
		"Failed to generate %s after %d attempts: %v": "%s の生成に %d 回失敗しました: %v",
		"Failed to read cached preview %s: %v":        "キャッシュ済みプレビュー %s の読み込みに失敗しました: %v",
		"Failed to store %s: %v":                      "%s の保存に失敗しました: %v",
		"Failed to remove %s: %v":                     "%s の削除に失敗しました: %v",
		"Failed to draw placeholder for %s: %v":       "%s のプレースホルダー描画に失敗しました: %v",
		"Failed to write summary: %v":                 "サマリーの書き出しに失敗しました: %v",
	})
}
