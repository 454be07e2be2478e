package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"executive-portfolio-api/models"
)

// WriteMessageWorkbook renders the inbox as serialized XLSX bytes. The
// workbook is closed on every path, including serialization failure.
func WriteMessageWorkbook(messages []models.Message) ([]byte, error) {
	f, err := BuildMessageWorkbook(messages)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildMessageWorkbook renders the inbox as an XLSX workbook for offline
// review. Caller owns closing the returned file.
func BuildMessageWorkbook(messages []models.Message) (*excelize.File, error) {
	f := excelize.NewFile()

	sheetName := "Messages"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"ID", "Full Name", "Email", "Organization", "Phone", "Purpose",
		"Purpose Detail", "Message", "Status", "Read", "Attachment",
		"Admin Response", "Responded By", "Responded At", "Internal Notes",
		"Submitted At",
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, msg := range messages {
		row := rowIdx + 2 // Start from row 2 (after headers)

		attachmentName := ""
		if msg.Attachment != nil {
			attachmentName = msg.Attachment.OriginalName
		}

		respondedAt := ""
		if msg.ResponseTimestamp != nil {
			respondedAt = msg.ResponseTimestamp.Format("2006-01-02 15:04:05")
		}

		values := []interface{}{
			msg.ID.Hex(),
			msg.FullName,
			msg.Email,
			msg.Organization,
			msg.Phone,
			msg.Purpose,
			msg.PurposeDetail,
			msg.Message,
			msg.Status,
			msg.IsRead,
			attachmentName,
			msg.AdminResponse,
			msg.RespondedBy,
			respondedAt,
			msg.InternalNotes,
			msg.CreatedAt.Format("2006-01-02 15:04:05"),
		}

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	return f, nil
}
