package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"socialfeed/internal/model"
	"socialfeed/internal/repository"
	"socialfeed/internal/util"
)

type NotificationService interface {
	SendCommentNotification(receiverID, senderID, commentID, postID uint) error
	SendReplyNotification(receiverID, senderID, commentID, postID uint) error
	SendReactionNotification(receiverID, senderID, reactableID uint, reactableType, reactionType string) error
	GetNotifications(userID uint, limit, offset int) ([]*model.Notification, error)
	GetUnreadCount(userID uint) (int64, error)
	MarkAsRead(notificationID, userID uint) error
	MarkAllAsRead(userID uint) error
	DeleteNotification(notificationID, userID uint) error
}

// NotificationMessage is the payload published to RabbitMQ for async
// delivery to connected clients.
type NotificationMessage struct {
	UserID    uint                   `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

const (
	NotificationQueueName  = "notification_queue"
	NotificationExchange   = "notification_exchange"
	NotificationRoutingKey = "notification"
)

type notificationService struct {
	notifRepo repository.NotificationRepository
	rabbitMQ  *util.RabbitMQClient
}

func NewNotificationService(notifRepo repository.NotificationRepository, rabbitMQ *util.RabbitMQClient) NotificationService {
	return &notificationService{
		notifRepo: notifRepo,
		rabbitMQ:  rabbitMQ,
	}
}

func (s *notificationService) SendCommentNotification(receiverID, senderID, commentID, postID uint) error {
	targetType := model.ReactableTypeComment
	return s.send(&model.Notification{
		UserID:     receiverID,
		SenderID:   &senderID,
		Type:       model.NotificationTypeComment,
		Title:      "New comment",
		Message:    "Someone commented on your post",
		TargetID:   &commentID,
		TargetType: &targetType,
	}, map[string]interface{}{
		"comment_id": commentID,
		"post_id":    postID,
	})
}

func (s *notificationService) SendReplyNotification(receiverID, senderID, commentID, postID uint) error {
	targetType := model.ReactableTypeComment
	return s.send(&model.Notification{
		UserID:     receiverID,
		SenderID:   &senderID,
		Type:       model.NotificationTypeReply,
		Title:      "New reply",
		Message:    "Someone replied to your comment",
		TargetID:   &commentID,
		TargetType: &targetType,
	}, map[string]interface{}{
		"comment_id": commentID,
		"post_id":    postID,
	})
}

func (s *notificationService) SendReactionNotification(receiverID, senderID, reactableID uint, reactableType, reactionType string) error {
	return s.send(&model.Notification{
		UserID:     receiverID,
		SenderID:   &senderID,
		Type:       model.NotificationTypeReaction,
		Title:      "New reaction",
		Message:    fmt.Sprintf("Someone reacted with %s to your %s", reactionType, reactableType),
		TargetID:   &reactableID,
		TargetType: &reactableType,
	}, map[string]interface{}{
		"reactable_id":   reactableID,
		"reactable_type": reactableType,
		"reaction_type":  reactionType,
	})
}

// send persists the notification, then publishes it for async push.
// Publish failures are logged, not surfaced: the row is already saved.
func (s *notificationService) send(notification *model.Notification, data map[string]interface{}) error {
	if data != nil {
		if dataJSON, err := json.Marshal(data); err == nil {
			notification.Data = string(dataJSON)
		}
	}

	if err := s.notifRepo.Create(notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.rabbitMQ != nil {
		msg := NotificationMessage{
			UserID:    notification.UserID,
			Type:      notification.Type,
			Title:     notification.Title,
			Message:   notification.Message,
			Data:      data,
			Timestamp: time.Now(),
		}

		msgJSON, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Failed to marshal notification message: %v", err)
			return nil
		}

		if err := s.rabbitMQ.Publish(NotificationExchange, NotificationRoutingKey, msgJSON); err != nil {
			log.Printf("Failed to publish notification to RabbitMQ: %v", err)
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(userID uint, limit, offset int) ([]*model.Notification, error) {
	return s.notifRepo.FindByUserID(userID, limit, offset)
}

func (s *notificationService) GetUnreadCount(userID uint) (int64, error) {
	return s.notifRepo.CountUnread(userID)
}

func (s *notificationService) MarkAsRead(notificationID, userID uint) error {
	return s.notifRepo.MarkAsRead(notificationID, userID)
}

func (s *notificationService) MarkAllAsRead(userID uint) error {
	return s.notifRepo.MarkAllAsRead(userID)
}

func (s *notificationService) DeleteNotification(notificationID, userID uint) error {
	return s.notifRepo.Delete(notificationID, userID)
}
