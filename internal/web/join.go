package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

type JoinData struct {
	Code    string
	JoinURL string
	QRPath  string
}

// Join renders the player page for one room. The page keeps its durable
// identity in localStorage so a reload reconnects the same player.
func Join(data JoinData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		code := templ.EscapeString(data.Code)
		_, err := io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Join `+code+` · Purple Sphinx</title>
`+baseStyles+`
  </head>
  <body data-code="`+code+`">
    <main class="shell">
      <header class="hero">
        <span class="tag">Room `+code+`</span>
        <h1>Join the quiz</h1>
        <img class="qr" src="`+templ.EscapeString(data.QRPath)+`" alt="QR code for `+templ.EscapeString(data.JoinURL)+`" width="160" height="160"/>
      </header>

      <section class="panel" id="joinPanel">
        <form id="joinForm">
          <input name="nickname" placeholder="Nickname" maxlength="40" autocomplete="nickname" required/>
          <input name="contact" placeholder="Email (optional)" maxlength="120" autocomplete="email"/>
          <button type="submit" class="primary">Join</button>
        </form>
        <div id="status" class="result"></div>
      </section>

      <section class="panel hidden" id="questionPanel">
        <div id="prompt"></div>
        <div id="choices"></div>
        <div id="deadline" class="result"></div>
      </section>
    </main>

    <script>
      const code = document.body.dataset.code;
      const statusEl = document.getElementById("status");
      const questionPanel = document.getElementById("questionPanel");
      let identity = localStorage.getItem("sphinx_identity") || "";
      let ref = 0;
      const proto = location.protocol === "https:" ? "wss://" : "ws://";
      const socket = new WebSocket(proto + location.host + "/ws");

      function send(type, payload) {
        ref += 1;
        socket.send(JSON.stringify({ ref: String(ref), type, payload }));
      }

      function showQuestion(q) {
        questionPanel.classList.remove("hidden");
        document.getElementById("prompt").innerHTML = q.prompt_html;
        const choices = document.getElementById("choices");
        choices.innerHTML = "";
        if (q.type === "truefalse") {
          ["true", "false"].forEach((value) => {
            const btn = document.createElement("button");
            btn.textContent = value;
            btn.onclick = () => send("submit_answer", { answer: value });
            choices.appendChild(btn);
          });
        } else if (q.type === "multi") {
          (q.options || []).forEach((opt) => {
            const label = document.createElement("label");
            label.innerHTML = '<input type="checkbox" value="' + opt.id + '"/> ';
            label.appendChild(document.createTextNode(opt.label));
            choices.appendChild(label);
          });
          const btn = document.createElement("button");
          btn.textContent = "Submit";
          btn.onclick = () => {
            const picked = [...choices.querySelectorAll("input:checked")].map((el) => el.value);
            send("submit_answer", { answer: picked });
          };
          choices.appendChild(btn);
        } else {
          const input = document.createElement("textarea");
          input.maxLength = 1000;
          const btn = document.createElement("button");
          btn.textContent = "Submit";
          btn.onclick = () => send("submit_answer", { answer: input.value });
          choices.appendChild(input);
          choices.appendChild(btn);
        }
      }

      socket.addEventListener("message", (event) => {
        const msg = JSON.parse(event.data);
        if (msg.type === "ack") {
          if (!msg.ok) {
            statusEl.textContent = msg.error;
            return;
          }
          if (msg.data && msg.data.player) {
            identity = msg.data.player.identity;
            localStorage.setItem("sphinx_identity", identity);
            statusEl.textContent = "Joined as " + msg.data.player.nickname;
          }
          return;
        }
        if (msg.type === "question_shown") {
          showQuestion(msg.payload.question);
          document.getElementById("deadline").textContent = "Answer before " + new Date(msg.payload.deadline).toLocaleTimeString();
        } else if (msg.type === "question_results") {
          questionPanel.classList.add("hidden");
          statusEl.textContent = "Results are in.";
        } else if (msg.type === "room_closed") {
          statusEl.textContent = "The room was closed.";
          socket.close();
        }
      });

      document.getElementById("joinForm").addEventListener("submit", (event) => {
        event.preventDefault();
        const form = event.target.elements;
        send("join_player", {
          code,
          nickname: form.nickname.value,
          contact: form.contact.value,
          identity,
        });
      });
    </script>
  </body>
</html>`)
		return err
	})
}
