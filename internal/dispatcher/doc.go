// Package dispatcher はプッシュ通知のディスパッチャサービスを提供する。
//
// 送信リクエスト（ユニキャストまたはブロードキャスト）を受け取り、
// 送信先のデバイストークンを解決し、アクセストークンを一度だけ取得して、
// トークンごとにFCMへの送信を並行して行う。各トークンの結果は
// 解決した順序のままresultsに格納して返す。
package dispatcher
