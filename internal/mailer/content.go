/**
 * @description
 * Fixed notification copy for the transaction lifecycle. Every status change
 * produces one buyer-facing and one seller-facing message describing the same
 * event from each party's perspective. The copy lives in a pure lookup so
 * there is no shared mutable template state.
 */

package mailer

import (
	"fmt"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/domain"
)

// Role selects which party a notification addresses.
type Role int

const (
	RoleBuyer Role = iota
	RoleSeller
)

// CreatedContent returns the title and per-role body for a freshly recorded
// transaction.
func CreatedContent(role Role, transactionID int64, firstName string) (title, body string) {
	title = fmt.Sprintf("Transaction %d has been initialized!", transactionID)
	switch role {
	case RoleSeller:
		body = fmt.Sprintf(`Dear %s,<br>
A potential buyer has created a transaction and paid (Transaction %d) for the product details below.
<br><br>Kindly deliver the product to them.`, firstName, transactionID)
	default:
		body = fmt.Sprintf(`Dear %s,<br>
Thanks for your order!<br><br> The seller will proceed to deliver the product to you.`, firstName)
	}
	return title, body
}

// StatusContent returns the title and per-role body for a status transition.
// ok is false for statuses that carry no notification copy (only 1..5 do).
func StatusContent(status domain.Status, role Role, transactionID int64, firstName string) (title, body string, ok bool) {
	switch status {
	case domain.StatusDelivered:
		title = fmt.Sprintf("Seller has delivered product in transaction %d", transactionID)
		if role == RoleSeller {
			body = fmt.Sprintf(`Dear %s,<br><br>
You have marked the transaction with ID: %d as delivered.<br>
We are now waiting for the buyer to confirm the delivery, and then you'll be able to claim your funds.`, firstName, transactionID)
		} else {
			body = fmt.Sprintf(`Dear %s,<br><br>
The seller in the transaction with ID: %d has marked it as delivered.<br>
Please confirm the delivery when you receive it. If you are not satisfied with the product, you can raise a dispute later.`, firstName, transactionID)
		}
	case domain.StatusConfirmed:
		title = fmt.Sprintf("Buyer has confirmed receiving product in transaction %d", transactionID)
		if role == RoleBuyer {
			body = fmt.Sprintf(`Dear %s,<br><br>
You have marked the transaction with ID: %d as confirmed, meaning you have received the product.<br>
You can raise a dispute within the next 24 hrs if you happen to be dissatisfied with the product.`, firstName, transactionID)
		} else {
			body = fmt.Sprintf(`Dear %s,<br><br>
The buyer in the transaction with ID: %d has confirmed that they have received the product.<br>
Barring them raising a dispute on the transaction, you will be able to claim your funds in the next 24 hrs.`, firstName, transactionID)
		}
	case domain.StatusDisputed:
		title = fmt.Sprintf("Buyer has raised a dispute on transaction %d", transactionID)
		if role == RoleBuyer {
			body = fmt.Sprintf(`Dear %s,<br><br>
You have just disputed the transaction with ID: %d.<br>
You should proceed to returning the product back to the seller. When they confirm the return, we will immediately refund your funds.`, firstName, transactionID)
		} else {
			body = fmt.Sprintf(`Dear %s,<br><br>
The buyer in the transaction with ID: %d has raised a dispute and will return your product to you.<br>
When they do that, you should let us know immediately so we can refund their funds to them.`, firstName, transactionID)
		}
	case domain.StatusCancelled:
		title = fmt.Sprintf("Transaction %d cancelled!", transactionID)
		if role == RoleSeller {
			body = fmt.Sprintf(`Dear %s,<br><br>
You have confirmed the return of the product in transaction with ID: %d and the transaction has been cancelled and finalized.`, firstName, transactionID)
		} else {
			body = fmt.Sprintf(`Dear %s,<br><br>
The seller in the transaction with ID: %d has confirmed the return of their product.<br>
Your funds have been refunded and the transaction has been cancelled and finalized. Thank you.`, firstName, transactionID)
		}
	case domain.StatusFinalized:
		title = fmt.Sprintf("Transaction %d successful and finalized.", transactionID)
		if role == RoleSeller {
			body = fmt.Sprintf(`Dear %s,<br><br>
You have successfully claimed your funds in transaction with ID: %d and the transaction has been successfully finalized.<br><br>
Thank you!`, firstName, transactionID)
		} else {
			body = fmt.Sprintf(`Dear %s,<br><br>
The transaction with ID: %d has been successfully finalized by the seller.<br><br>
Thank you!`, firstName, transactionID)
		}
	default:
		return "", "", false
	}
	return title, body, true
}
