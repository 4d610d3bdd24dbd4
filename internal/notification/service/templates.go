package service

import (
	"fmt"
	"strings"

	"github.com/marugo/torioki/internal/notification/domain"
)

// Message bodies mirror the shop's LINE templates: a heading block, the
// ordered items, pickup date and total, then the reservation link.

func buildConfirmationText(summary domain.ReservationSummary, publicURL string) string {
	var b strings.Builder
	b.WriteString("【予約完了のお知らせ】\n\n")
	fmt.Fprintf(&b, "%s様、ご予約ありがとうございます。\n", summary.CustomerName)
	b.WriteString("以下の内容で予約を承りました。\n\n■ご予約内容\n")
	for _, item := range summary.Items {
		fmt.Fprintf(&b, "・%s（%d個）：%d円\n", item.ProductName, item.Quantity, item.Subtotal)
	}
	if !summary.PickupDate.IsZero() {
		fmt.Fprintf(&b, "\n■お引き取り日\n%s\n", summary.PickupDate.Format("2006年1月2日"))
	}
	if summary.TotalAmount > 0 {
		fmt.Fprintf(&b, "\n■合計金額\n%d円\n", summary.TotalAmount)
	}
	if summary.Note != nil && *summary.Note != "" {
		fmt.Fprintf(&b, "\n■備考\n%s\n", *summary.Note)
	}
	if publicURL != "" {
		fmt.Fprintf(&b, "\nご予約内容の確認は以下のリンクから可能です。\n%s/reservation/%s\n", publicURL, summary.ReservationID)
	}
	b.WriteString("\nご不明点はお気軽にお問い合わせください。")
	return b.String()
}

func buildReminderText(summary domain.ReservationSummary, publicURL string) string {
	var b strings.Builder
	b.WriteString("【明日の引き取りのお知らせ】\n\n")
	fmt.Fprintf(&b, "%s様\n\n明日は以下商品の引き取り日です。\n", summary.CustomerName)
	for _, item := range summary.Items {
		fmt.Fprintf(&b, "・%s\n", item.ProductName)
	}
	fmt.Fprintf(&b, "\n■引き取り日時\n%s 10:00～18:00\n", summary.PickupDate.Format("2006年1月2日"))
	if publicURL != "" {
		fmt.Fprintf(&b, "\nご予約内容の確認は以下のリンクから可能です。\n%s/reservation/%s", publicURL, summary.ReservationID)
	}
	return b.String()
}

func buildCancellationText(summary domain.ReservationSummary, publicURL string) string {
	var b strings.Builder
	b.WriteString("【予約キャンセルのお知らせ】\n\n")
	fmt.Fprintf(&b, "%s様\n\n以下のご予約がキャンセルされました。\n\n■キャンセルされた予約\n", summary.CustomerName)
	for _, item := range summary.Items {
		fmt.Fprintf(&b, "・%s\n", item.ProductName)
	}
	if publicURL != "" {
		fmt.Fprintf(&b, "\n再度ご予約される場合は以下のリンクからお願いします。\n%s\n", publicURL)
	}
	b.WriteString("\nご不明点はお気軽にお問い合わせください。")
	return b.String()
}
