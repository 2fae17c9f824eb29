package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/temirov/belay/internal/slackapi"
	"github.com/temirov/belay/internal/utils"
)

const (
	// InlineLimit is the report length, in characters, from which reports are uploaded as files.
	InlineLimit = 3000
	// EmptyReportText replaces an empty report body.
	EmptyReportText = "No issues found."

	attachmentColorConstant         = "danger"
	attachmentMarkdownFieldConstant = "text"
	uploadFileTypeConstant          = "text"
	pointerMessageTemplateConstant  = "%s: report too long to post inline, see <%s|the uploaded file>."
	standardOutputTemplateConstant  = "\n%s\n"
	uploadErrorTemplateConstant     = "unable to upload %q report: %w"
	postErrorTemplateConstant       = "unable to post %q report: %w"
	writeErrorTemplateConstant      = "unable to write %q report: %w"
	reportDeliveredMessageConstant  = "report delivered"
	logFieldHeadingConstant         = "heading"
	logFieldChannelConstant         = "channel"
	logFieldLengthConstant          = "length"
	logFieldDeliveryConstant        = "delivery"
	deliveryStandardOutputConstant  = "stdout"
	deliveryAttachmentConstant      = "attachment"
	deliveryFileUploadConstant      = "file_upload"
)

// Messenger exposes the Slack delivery calls used by Dispatcher.
type Messenger interface {
	PostMessage(executionContext context.Context, message slackapi.Message) error
	UploadFile(executionContext context.Context, upload slackapi.FileUpload) (slackapi.UploadedFile, error)
}

// Dispatcher delivers formatted reports.
type Dispatcher struct {
	messenger    Messenger
	channel      string
	outputWriter io.Writer
	logger       *zap.Logger
}

// NewDispatcher constructs a Dispatcher. Reports go to outputWriter when channel is empty and
// to channel through messenger otherwise.
func NewDispatcher(messenger Messenger, channel string, outputWriter io.Writer, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		messenger:    messenger,
		channel:      strings.TrimSpace(channel),
		outputWriter: utils.NewFlushingWriter(outputWriter),
		logger:       logger,
	}
}

// Dispatch delivers text under heading. An empty text is replaced with EmptyReportText.
func (dispatcher *Dispatcher) Dispatch(executionContext context.Context, heading string, text string) error {
	if len(strings.TrimSpace(text)) == 0 {
		text = EmptyReportText
	}

	textLength := utf8.RuneCountInString(text)

	switch {
	case len(dispatcher.channel) == 0 || dispatcher.messenger == nil:
		if writeError := dispatcher.writeStandardOutput(heading, text); writeError != nil {
			return fmt.Errorf(writeErrorTemplateConstant, heading, writeError)
		}
		dispatcher.logDelivery(heading, textLength, deliveryStandardOutputConstant)
	case textLength < InlineLimit:
		if postError := dispatcher.postAttachment(executionContext, heading, text); postError != nil {
			return fmt.Errorf(postErrorTemplateConstant, heading, postError)
		}
		dispatcher.logDelivery(heading, textLength, deliveryAttachmentConstant)
	default:
		if uploadError := dispatcher.uploadWithPointer(executionContext, heading, text); uploadError != nil {
			return uploadError
		}
		dispatcher.logDelivery(heading, textLength, deliveryFileUploadConstant)
	}

	return nil
}

func (dispatcher *Dispatcher) writeStandardOutput(heading string, text string) error {
	if _, headingError := color.New(color.Bold).Fprintln(dispatcher.outputWriter, heading); headingError != nil {
		return headingError
	}
	_, textError := fmt.Fprintf(dispatcher.outputWriter, standardOutputTemplateConstant, text)
	return textError
}

func (dispatcher *Dispatcher) postAttachment(executionContext context.Context, heading string, text string) error {
	return dispatcher.messenger.PostMessage(executionContext, slackapi.Message{
		Channel: dispatcher.channel,
		Attachments: []slackapi.Attachment{
			{
				Title:    heading,
				Text:     text,
				Fallback: heading,
				Color:    attachmentColorConstant,
				MrkdwnIn: []string{attachmentMarkdownFieldConstant},
			},
		},
	})
}

func (dispatcher *Dispatcher) uploadWithPointer(executionContext context.Context, heading string, text string) error {
	uploadedFile, uploadError := dispatcher.messenger.UploadFile(executionContext, slackapi.FileUpload{
		Content:  text,
		Title:    heading,
		FileType: uploadFileTypeConstant,
		Channels: []string{dispatcher.channel},
	})
	if uploadError != nil {
		return fmt.Errorf(uploadErrorTemplateConstant, heading, uploadError)
	}

	fileLink := uploadedFile.Permalink
	if len(fileLink) == 0 {
		fileLink = uploadedFile.URL
	}

	postError := dispatcher.messenger.PostMessage(executionContext, slackapi.Message{
		Channel: dispatcher.channel,
		Text:    fmt.Sprintf(pointerMessageTemplateConstant, heading, fileLink),
	})
	if postError != nil {
		return fmt.Errorf(postErrorTemplateConstant, heading, postError)
	}
	return nil
}

func (dispatcher *Dispatcher) logDelivery(heading string, textLength int, delivery string) {
	dispatcher.logger.Info(
		reportDeliveredMessageConstant,
		zap.String(logFieldHeadingConstant, heading),
		zap.String(logFieldChannelConstant, dispatcher.channel),
		zap.Int(logFieldLengthConstant, textLength),
		zap.String(logFieldDeliveryConstant, delivery),
	)
}
