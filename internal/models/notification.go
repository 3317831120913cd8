package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is shared by every recipient; read state lives in
// NotificationRecipient so one broadcast is a single document.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	Link      string             `bson:"link,omitempty" json:"link,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type NotificationRecipient struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NotificationID primitive.ObjectID `bson:"notificationId" json:"notificationId"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	IsRead         bool               `bson:"isRead" json:"isRead"`
	ReadAt         *time.Time         `bson:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// UserNotification is the joined view returned to a user.
type UserNotification struct {
	Notification `bson:",inline"`
	IsRead       bool       `bson:"isRead" json:"isRead"`
	ReadAt       *time.Time `bson:"readAt,omitempty" json:"readAt,omitempty"`
}
