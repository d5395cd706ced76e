package render

import "html/template"

var fragments = template.Must(template.New("fragments").Parse(`
{{define "pix"}}<div class="payment-info pix-info">
    <div class="info-card">
        <div class="info-icon"><i class="fas fa-qrcode"></i></div>
        <div class="info-content">
            <h4>Pagamento via PIX</h4>
            <p>Após confirmar a doação, você receberá as instruções para pagamento via PIX por e-mail.</p>
            {{- if .PixKey}}
            <div class="pix-key">
                <code>{{.PixKey}}</code>
                <button type="button" class="copy-btn" data-copy="{{.PixKey}}"><i class="fas fa-copy"></i> Copiar</button>
            </div>
            {{- end}}
            {{- if .PixNote}}
            <div class="pix-note">{{.PixNote}}</div>
            {{- end}}
            <ul class="pix-benefits">
                <li><i class="fas fa-check"></i> Pagamento instantâneo</li>
                <li><i class="fas fa-check"></i> Disponível 24h por dia</li>
                <li><i class="fas fa-check"></i> Sem taxas adicionais</li>
            </ul>
        </div>
    </div>
</div>{{end}}

{{define "credit_card"}}<div class="payment-info credit-card-info">
    <div class="info-card">
        <div class="info-icon"><i class="fas fa-credit-card"></i></div>
        <div class="info-content">
            <h4>Cartão de Crédito</h4>
            <p>Você será redirecionado para nossa plataforma de pagamento segura.</p>
            <div class="card-brands">
                <i class="fab fa-cc-visa"></i>
                <i class="fab fa-cc-mastercard"></i>
                <i class="fab fa-cc-amex"></i>
                <i class="fab fa-cc-diners-club"></i>
            </div>
            <ul class="card-benefits">
                <li><i class="fas fa-shield-alt"></i> Pagamento 100% seguro</li>
                <li><i class="fas fa-lock"></i> Dados criptografados</li>
                <li><i class="fas fa-receipt"></i> Recibo automático</li>
            </ul>
        </div>
    </div>
</div>{{end}}

{{define "bank_transfer"}}<div class="payment-info bank-transfer-info">
    <div class="info-card">
        <div class="info-icon"><i class="fas fa-university"></i></div>
        <div class="info-content">
            <h4>Transferência Bancária</h4>
            <p>Após confirmar a doação, você receberá nossos dados bancários por e-mail.</p>
            <div class="bank-info-preview">
                <div class="bank-detail"><strong>Banco:</strong> {{.BankName}}</div>
                <div class="bank-detail"><strong>Conta:</strong> {{.AccountType}}</div>
                <div class="bank-detail"><strong>CNPJ:</strong> {{.CNPJ}}</div>
            </div>
            <ul class="transfer-benefits">
                <li><i class="fas fa-check"></i> Sem taxas para o doador</li>
                <li><i class="fas fa-check"></i> Comprovante automático</li>
                <li><i class="fas fa-check"></i> Processamento em 1-2 dias úteis</li>
            </ul>
        </div>
    </div>
</div>{{end}}

{{define "message"}}<div class="form-message {{.Kind}}">
    <i class="fas fa-{{.Icon}}"></i>
    <span>{{.Text}}</span>
    {{- if .Details}}
    <ul class="validation-summary">
        {{- range .Details}}
        <li>{{.}}</li>
        {{- end}}
    </ul>
    {{- end}}
</div>{{end}}

{{define "success"}}<div class="donation-success">
    <div class="success-icon"><i class="fas fa-check-circle"></i></div>
    <h3>Doação confirmada!</h3>
    <p>Obrigado pela sua generosidade, {{.Name}}!</p>
    <div class="donation-details">
        <div class="detail-item"><strong>Valor:</strong> {{.Amount}}</div>
        <div class="detail-item"><strong>Método:</strong> {{.Method}}</div>
        <div class="detail-item"><strong>ID da doação:</strong> {{.ID}}</div>
    </div>
    <p class="success-message">Você receberá as instruções de pagamento por e-mail em breve.</p>
    <div class="success-actions">
        <button type="button" class="btn-primary" data-action="new-donation">Fazer nova doação</button>
        <a href="index.html" class="btn-secondary">Voltar ao site</a>
    </div>
</div>{{end}}
`))
