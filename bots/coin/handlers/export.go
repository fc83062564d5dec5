package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/m3rciful/coinbot/bots/coin/storage"
	tghelpers "github.com/m3rciful/coinbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const exportSheet = "Ledger"

// Export sends the whole ledger as an XLSX document.
func (h *Handlers) Export(c tele.Context) error {
	users, err := h.ledger.ListUsers(tghelpers.BuildContext(c))
	if err != nil {
		return err
	}
	data, err := buildWorkbook(users)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: fmt.Sprintf("ledger_%s.xlsx", time.Now().Format("20060102_150405")),
		Caption:  fmt.Sprintf("Пользователей: %d", len(users)),
	}
	return tghelpers.SendDocument(c, doc)
}

func buildWorkbook(users []storage.User) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("sheet: %w", err)
	}

	header := []any{"user_id", "username", "nickname", "balance"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, u := range users {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("cell: %w", err)
		}
		row := []any{u.UserID, u.Username, u.Nickname, u.Balance}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	return buf.Bytes(), nil
}
